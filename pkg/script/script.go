// Package script loads and saves IPL script files.
//
// Scripts are plain text with the .ipl extension. Files are decoded to UTF-8
// on load; a byte order mark overrides the configured encoding.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/zurustar/ipl-painter/pkg/fileutil"
)

// Extension はスクリプトファイルの拡張子
const Extension = ".ipl"

// ErrNotScript は拡張子が .ipl でないファイルを開こうとしたときのエラー
var ErrNotScript = errors.New("not an IPL script (expected .ipl extension)")

// Script はスクリプトファイルを表す
type Script struct {
	FileName string // ファイル名
	Path     string // 実際に読み込んだパス
	Content  string // UTF-8に変換された内容
	Size     int64  // ファイルサイズ（バイト）
}

// LookupEncoding はWHATWGのエンコーディング名から Encoding を返す。
// 空文字列はUTF-8として扱う。
func LookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

// Decode はバイト列をUTF-8の文字列に変換する。BOMがあればBOMのエンコーディングを優先する。
func Decode(data []byte, enc encoding.Encoding) (string, error) {
	if enc == nil {
		enc = unicode.UTF8
	}
	decoder := unicode.BOMOverride(enc.NewDecoder())
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), decoder))
	if err != nil {
		return "", fmt.Errorf("failed to decode script: %w", err)
	}
	return string(out), nil
}

// Read は r からスクリプト全体を読み込む（標準入力用）
func Read(r io.Reader, enc encoding.Encoding) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return Decode(data, enc)
}

// Loader はスクリプトファイルの読み込みを行う
type Loader struct {
	fs       fileutil.FileSystem
	encoding encoding.Encoding
}

// LoaderOption は Loader のオプションを設定する関数型
type LoaderOption func(*Loader)

// WithEncoding はファイルのエンコーディングを設定する（既定はUTF-8）
func WithEncoding(enc encoding.Encoding) LoaderOption {
	return func(l *Loader) {
		l.encoding = enc
	}
}

// NewLoader creates a loader reading from fsys.
func NewLoader(fsys fileutil.FileSystem, opts ...LoaderOption) *Loader {
	l := &Loader{fs: fsys, encoding: unicode.UTF8}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load は .ipl ファイルを読み込む。ファイル名の大文字小文字は区別しない。
func (l *Loader) Load(name string) (*Script, error) {
	if !fileutil.HasExtension(name, Extension) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotScript)
	}

	actual, err := l.fs.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("failed to find script %s: %w", name, err)
	}

	data, err := l.fs.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", name, err)
	}

	content, err := Decode(data, l.encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding of %s: %w", name, err)
	}

	return &Script{
		FileName: filepath.Base(actual),
		Path:     actual,
		Content:  content,
		Size:     int64(len(data)),
	}, nil
}

// List はベースディレクトリにある .ipl ファイルの名前を名前順に返す
func (l *Loader) List() ([]string, error) {
	entries, err := l.fs.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	return fileutil.ListFilesWithExt(entries, Extension), nil
}

// Save はスクリプトを保存する。拡張子が .ipl でなければ付け足す。
// 実際に書き込んだパスを返す。
func Save(path, content string, enc encoding.Encoding) (string, error) {
	if !fileutil.HasExtension(path, Extension) {
		path += Extension
	}
	if enc == nil {
		enc = unicode.UTF8
	}

	encoded, _, err := transform.String(enc.NewEncoder(), content)
	if err != nil {
		return "", fmt.Errorf("failed to encode script: %w", err)
	}

	if err := os.WriteFile(path, []byte(encoded), 0644); err != nil {
		return "", fmt.Errorf("failed to save script: %w", err)
	}
	return path, nil
}

// Normalize は改行をLFにそろえ、末尾の空行を取り除く
func Normalize(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.TrimRight(content, "\n")
}
