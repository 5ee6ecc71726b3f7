package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/ipl-painter/pkg/canvas"
	"github.com/zurustar/ipl-painter/pkg/ipl/env"
	"github.com/zurustar/ipl-painter/pkg/ipl/palette"
	"github.com/zurustar/ipl-painter/pkg/logger"
	"github.com/zurustar/ipl-painter/pkg/script"
)

// DefaultMaxIterations はwhileループ1つあたりの既定の最大反復回数
const DefaultMaxIterations = 1_000_000

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	ScriptPath    string        // スクリプトファイル（空または "-" は標準入力）
	Example       string        // 組み込みサンプル名（ScriptPathより優先）
	ListExamples  bool          // 組み込みサンプルの一覧を表示
	Check         bool          // 構文チェックのみ行う
	Output        string        // 描画結果の保存先（.png / .bmp）
	SavePath      string        // スクリプトの保存先（.iplを補う）
	Width         int           // キャンバスの幅
	Height        int           // キャンバスの高さ
	Timeout       time.Duration // タイムアウト時間（0は無制限）
	LogLevel      string        // ログレベル（debug, info, warn, error）
	Headless      bool          // ヘッドレスモード
	Arithmetic    env.Mode      // 代入式の評価モード
	Palette       string        // 色パレット（basic, extended）
	Encoding      string        // スクリプトのエンコーディング
	MaxIterations int           // whileループの最大反復回数（0は無制限）
	ShowHelp      bool          // ヘルプ表示フラグ
}

// UsesStdin はスクリプトを標準入力から読むかどうかを返す
func (c *Config) UsesStdin() bool {
	return c.Example == "" && (c.ScriptPath == "" || c.ScriptPath == "-")
}

// boolFlags は値を取らないフラグ（reorderArgsで次の引数を値として扱わない）
var boolFlags = map[string]bool{
	"-h": true, "--help": true, "-help": true,
	"-c": true, "--check": true, "-check": true,
	"--headless": true, "-headless": true,
	"--list-examples": true, "-list-examples": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("ipl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	var timeoutSec int
	var arith string
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.BoolVar(&config.Check, "check", false, "構文チェックのみ")
	fs.BoolVar(&config.Check, "c", false, "構文チェックのみ（短縮形）")
	fs.StringVar(&config.Output, "output", "", "描画結果の保存先")
	fs.StringVar(&config.Output, "o", "", "描画結果の保存先（短縮形）")
	fs.StringVar(&config.SavePath, "save", "", "スクリプトの保存先")
	fs.IntVar(&config.Width, "width", canvas.DefaultWidth, "キャンバスの幅")
	fs.IntVar(&config.Height, "height", canvas.DefaultHeight, "キャンバスの高さ")
	fs.StringVar(&arith, "arith", "legacy", "代入式の評価モード（legacy, standard）")
	fs.StringVar(&config.Palette, "palette", "basic", "色パレット（basic, extended）")
	fs.StringVar(&config.Encoding, "encoding", "utf-8", "スクリプトのエンコーディング")
	fs.IntVar(&config.MaxIterations, "max-iterations", DefaultMaxIterations, "whileループの最大反復回数（0は無制限）")
	fs.StringVar(&config.Example, "example", "", "組み込みサンプルを実行")
	fs.BoolVar(&config.ListExamples, "list-examples", false, "組み込みサンプルの一覧")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}

	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}

	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	if _, err := logger.ParseLevel(config.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	mode, err := env.ParseMode(arith)
	if err != nil {
		return nil, err
	}
	config.Arithmetic = mode

	if _, err := palette.ByName(config.Palette); err != nil {
		return nil, err
	}
	if _, err := script.LookupEncoding(config.Encoding); err != nil {
		return nil, err
	}

	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("canvas size must be positive, got %dx%d", config.Width, config.Height)
	}
	if config.MaxIterations < 0 {
		return nil, fmt.Errorf("max-iterations must be non-negative, got %d", config.MaxIterations)
	}
	if config.Output != "" {
		if _, err := canvas.FormatFromPath(config.Output); err != nil {
			return nil, err
		}
	}

	// 位置引数（スクリプトファイルのパス）
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("too many arguments: %v", fs.Args())
	}
	if fs.NArg() == 1 {
		config.ScriptPath = fs.Arg(0)
	}

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "-" 単体は標準入力を表す位置引数
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// -t 5 のように値が続く場合は一緒に移動する（--name=value 形式と値を取らないフラグは除く）
			if !strings.Contains(arg, "=") && !boolFlags[arg] &&
				i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `ipl - Interpreted Painting Language

Usage:
  ipl [options] [script.ipl]

Arguments:
  script.ipl    実行するスクリプト（省略または "-" で標準入力から読む）

Options:
  -c, --check                 構文チェックのみ行い、問題を表示する
  -o, --output <file>         描画結果を保存する（.png または .bmp）
  --save <file>               スクリプトを保存する（.ipl を補う）
  --width <px>                キャンバスの幅（デフォルト: %d）
  --height <px>               キャンバスの高さ（デフォルト: %d）
  --arith <mode>              代入式の評価: legacy, standard（デフォルト: legacy）
  --palette <name>            色パレット: basic (%s), extended (SVGの色名%d色)（デフォルト: basic）
  --encoding <name>           スクリプトのエンコーディング（デフォルト: utf-8）
  --max-iterations <n>        whileループの最大反復回数、0は無制限（デフォルト: %d）
  --example <name>            組み込みサンプルを実行
  --list-examples             組み込みサンプルの一覧を表示
  -t, --timeout <seconds>     指定秒数後に実行を中断（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --headless                  ヘッドレスモード（ウインドウを開かない）
  -h, --help                  このヘルプを表示

Environment Variables:
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル

Examples:
  ipl house.ipl                       ウインドウに描画する
  ipl --headless -o house.png house.ipl  画像として保存する
  ipl --check house.ipl               構文チェックのみ
  ipl --example spiral --arith standard
  echo "circle 50" | ipl --headless -o circle.bmp -
`, canvas.DefaultWidth, canvas.DefaultHeight,
		strings.Join(palette.Basic().Names(), ", "), len(palette.Extended().Names()),
		DefaultMaxIterations)
}
