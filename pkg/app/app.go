// Package app wires the command line, the interpreter and the drawing surfaces.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/zurustar/ipl-painter/pkg/canvas"
	"github.com/zurustar/ipl-painter/pkg/cli"
	"github.com/zurustar/ipl-painter/pkg/fileutil"
	"github.com/zurustar/ipl-painter/pkg/ipl"
	"github.com/zurustar/ipl-painter/pkg/ipl/checker"
	"github.com/zurustar/ipl-painter/pkg/ipl/palette"
	"github.com/zurustar/ipl-painter/pkg/logger"
	"github.com/zurustar/ipl-painter/pkg/script"
	"github.com/zurustar/ipl-painter/pkg/viewer"
)

// ExamplesDir は組み込みサンプルを置くディレクトリ名
const ExamplesDir = "examples"

// ErrReported はエラー内容をすでに出力済みであることを示す。
// 呼び出し側は終了コードだけを設定すればよい。
var ErrReported = errors.New("errors reported")

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config   *cli.Config
	log      *slog.Logger
	examples fs.FS
	encoding encoding.Encoding

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Option は Application のオプションを設定する関数型
type Option func(*Application)

// WithIO は標準入出力を差し替える
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(app *Application) {
		app.stdin = stdin
		app.stdout = stdout
		app.stderr = stderr
	}
}

// New Applicationを作成。examples は ExamplesDir 以下に .ipl を持つファイルシステム。
func New(examples fs.FS, opts ...Option) *Application {
	app := &Application{
		examples: examples,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	config, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.config = config

	if config.ShowHelp {
		cli.PrintHelp(app.stdout)
		return nil
	}

	// 2. ロガーの初期化
	if err := logger.InitLogger(config.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log = logger.GetLogger()

	app.encoding, err = script.LookupEncoding(config.Encoding)
	if err != nil {
		return err
	}

	if config.ListExamples {
		return app.listExamples()
	}

	// 3. スクリプトの読み込み
	name, content, err := app.loadScript()
	if err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}
	app.log.Info("Script loaded", "name", name, "bytes", len(content))
	app.log.Debug("Script content preview", "name", name, "preview", truncate(content, 100))

	if config.SavePath != "" {
		path, err := script.Save(config.SavePath, script.Normalize(content), app.encoding)
		if err != nil {
			return err
		}
		app.log.Info("Script saved", "path", path)
	}

	// 4. 構文チェックまたは実行
	if config.Check {
		return app.check(content)
	}
	if config.Headless {
		return app.runHeadless(content)
	}
	return app.runWindow(name, content)
}

// sessionOptions は設定からセッションのオプションを組み立てる
func (app *Application) sessionOptions() []ipl.Option {
	// パレット名は ParseArgs で検証済み
	p, _ := palette.ByName(app.config.Palette)
	return []ipl.Option{
		ipl.WithLogger(app.log),
		ipl.WithArithmetic(app.config.Arithmetic),
		ipl.WithPalette(p),
		ipl.WithMaxIterations(app.config.MaxIterations),
	}
}

// loadScript は組み込みサンプル、標準入力、ファイルのいずれかからスクリプトを読む
func (app *Application) loadScript() (string, string, error) {
	switch {
	case app.config.Example != "":
		name := app.config.Example
		if !fileutil.HasExtension(name, script.Extension) {
			name += script.Extension
		}
		loader := script.NewLoader(fileutil.NewEmbedFS(app.examples, ExamplesDir))
		s, err := loader.Load(name)
		if err != nil {
			return "", "", fmt.Errorf("unknown example %q (see --list-examples): %w", app.config.Example, err)
		}
		return s.FileName, s.Content, nil

	case app.config.UsesStdin():
		content, err := script.Read(app.stdin, app.encoding)
		if err != nil {
			return "", "", err
		}
		return "stdin", content, nil

	default:
		dir, file := filepath.Split(app.config.ScriptPath)
		if dir == "" {
			dir = "."
		}
		loader := script.NewLoader(fileutil.NewRealFS(dir), script.WithEncoding(app.encoding))
		s, err := loader.Load(file)
		if err != nil {
			return "", "", err
		}
		return s.FileName, s.Content, nil
	}
}

// listExamples は組み込みサンプルの名前を表示する
func (app *Application) listExamples() error {
	names, err := script.NewLoader(fileutil.NewEmbedFS(app.examples, ExamplesDir)).List()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(app.stdout, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return nil
}

// check は構文チェックの結果を表示する。問題があれば ErrReported を返す。
func (app *Application) check(content string) error {
	session := ipl.NewSession(nil, app.sessionOptions()...)
	diags := session.CheckSyntax(content)
	if len(diags) == 0 {
		fmt.Fprintln(app.stdout, "No syntax errors found.")
		return nil
	}

	fmt.Fprintln(app.stdout, checker.Format(diags))
	app.log.Info("Syntax check failed", "diagnostics", len(diags))
	return ErrReported
}

// runHeadless はウインドウを開かずにスクリプトを実行する
func (app *Application) runHeadless(content string) error {
	raster := canvas.NewRaster(app.config.Width, app.config.Height, canvas.WithRasterLogger(app.log))
	recorder := canvas.NewRecorder(
		canvas.WithRecorderLogger(app.log),
		canvas.WithLogOperations(true),
		canvas.WithRecordHistory(false),
	)
	session := ipl.NewSession(canvas.Multi(raster, recorder), app.sessionOptions()...)

	ctx := context.Background()
	if app.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.Timeout)
		defer cancel()
	}

	runErr := session.Interpret(ctx, content)
	app.log.Info("Script finished",
		"operations", recorder.Count(),
		"refreshes", recorder.Refreshes(),
		"variables", session.Env().Len())
	app.log.Debug("Final variables", "names", session.Env().Names())

	// 途中で止まっても、それまでの描画は保存する
	if err := app.saveOutput(raster); err != nil {
		return err
	}
	return app.report(runErr)
}

// runWindow はウインドウに描画しながらスクリプトを実行する
func (app *Application) runWindow(name, content string) error {
	raster := canvas.NewRaster(app.config.Width, app.config.Height, canvas.WithRasterLogger(app.log))
	session := ipl.NewSession(raster, app.sessionOptions()...)

	game := viewer.NewGame(raster,
		func(ctx context.Context) error {
			return session.Interpret(ctx, content)
		},
		viewer.WithTimeout(app.config.Timeout),
		viewer.WithLogger(app.log),
		viewer.WithStatus(func() string { return penStatus(session) }),
		viewer.WithRestart(func() {
			session.Reset()
			raster.Clear()
			raster.Refresh()
		}),
	)

	runErr := viewer.Run(game, "ipl - "+name)

	if err := app.saveOutput(raster); err != nil {
		return err
	}
	// ウインドウを閉じたことによる中断はエラーにしない
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return app.report(runErr)
}

// saveOutput は --output が指定されていれば画像を保存する
func (app *Application) saveOutput(raster *canvas.Raster) error {
	if app.config.Output == "" {
		return nil
	}
	if err := raster.Save(app.config.Output); err != nil {
		return fmt.Errorf("failed to save output: %w", err)
	}
	return nil
}

// report は実行エラーを表示する。Fault なら行番号と前後の行を含めて出力する。
func (app *Application) report(err error) error {
	if err == nil {
		return nil
	}
	var fault *ipl.Fault
	if errors.As(err, &fault) {
		fmt.Fprintln(app.stderr, fault.Detail())
		return ErrReported
	}
	return err
}

// penStatus はペンの状態を短い文字列にする
func penStatus(s *ipl.Session) string {
	pen := s.Pen()
	fill := "off"
	if pen.FillMode {
		fill = "on"
	}
	return fmt.Sprintf("pen %s  fill %s  at %d,%d", pen.ColorName, fill, pen.Position.X, pen.Position.Y)
}

// truncate 文字列を指定した長さで切り詰める
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
