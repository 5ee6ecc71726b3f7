package fileutil

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem は実ファイルシステムと埋め込みファイルシステムを統一的に扱うインターフェース
type FileSystem interface {
	// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
	ReadFile(name string) ([]byte, error)
	// ReadDir はディレクトリの内容を読み込む
	ReadDir(name string) ([]fs.DirEntry, error)
	// Resolve は大文字小文字を無視してファイルを探し、実際のパスを返す
	Resolve(name string) (string, error)
	// BasePath はベースパスを返す
	BasePath() string
	// IsEmbedded は埋め込みファイルシステムかどうかを返す
	IsEmbedded() bool
}

// RealFS は実ファイルシステムへのアクセスを提供する
type RealFS struct {
	basePath string
}

// NewRealFS は basePath を起点とする FileSystem を作成する（空なら作業ディレクトリ）
func NewRealFS(basePath string) *RealFS {
	return &RealFS{basePath: basePath}
}

func (r *RealFS) ReadFile(name string) ([]byte, error) {
	actual, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(actual)
}

func (r *RealFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(r.join(name))
}

// Resolve はまずそのままのパスを試し、なければ同じディレクトリを大文字小文字を無視して探す
func (r *RealFS) Resolve(name string) (string, error) {
	p := r.join(name)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return FindFileCaseInsensitive(filepath.Dir(p), filepath.Base(p))
}

func (r *RealFS) BasePath() string {
	return r.basePath
}

func (r *RealFS) IsEmbedded() bool {
	return false
}

func (r *RealFS) join(name string) string {
	if r.basePath == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.basePath, name)
}

// EmbedFS は埋め込みファイルシステム（embed.FS など）へのアクセスを提供する
type EmbedFS struct {
	fsys     fs.FS
	basePath string
}

// NewEmbedFS は fsys の basePath 以下を読む FileSystem を作成する
func NewEmbedFS(fsys fs.FS, basePath string) *EmbedFS {
	return &EmbedFS{fsys: fsys, basePath: basePath}
}

func (e *EmbedFS) ReadFile(name string) ([]byte, error) {
	actual, err := e.Resolve(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(e.fsys, actual)
}

func (e *EmbedFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(e.fsys, e.join(name))
}

func (e *EmbedFS) Resolve(name string) (string, error) {
	p := e.join(name)
	if f, err := e.fsys.Open(p); err == nil {
		f.Close()
		return p, nil
	}
	return FindFileCaseInsensitiveFS(e.fsys, path.Dir(p), path.Base(p))
}

func (e *EmbedFS) BasePath() string {
	return e.basePath
}

func (e *EmbedFS) IsEmbedded() bool {
	return true
}

// join は fs.FS 用のパスを作る。先頭の "/" や "\" は除去し、区切りは "/" にそろえる。
func (e *EmbedFS) join(name string) string {
	clean := strings.TrimLeft(strings.ReplaceAll(name, "\\", "/"), "/")
	if clean == "" {
		clean = "."
	}
	if e.basePath == "" {
		return path.Clean(clean)
	}
	return path.Join(e.basePath, clean)
}
