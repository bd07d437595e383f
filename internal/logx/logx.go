// Package logx opens the per-run log file: JSON lines written by a zap
// sugared logger into the project logs directory. Components log through
// the returned logger; the CLI owns the terminal.
package logx

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Open creates a logger writing to logs/<name>-<stamp>.log under dir. The
// returned close func flushes and closes the file.
func Open(dir, name string) (*zap.SugaredLogger, func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure logs directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s.log", name, time.Now().Format("20060102-150405"))
	file, err := os.OpenFile(filepath.Join(dir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), zapcore.DebugLevel)
	logger := zap.New(core)

	closeFn := func() {
		_ = logger.Sync()
		_ = file.Close()
	}
	return logger.Sugar(), closeFn, nil
}

// Nop returns a logger that discards everything, for commands that have no
// project directory yet.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
