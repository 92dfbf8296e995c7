package nativelog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EnvLogDir  = "MIGRATE_LOG_DIR"
	filePerm   = 0o644
	dirPerm    = 0o755
	dayLayout  = "2006-01-02"
	timeLayout = "2006-01-02 15:04:05.000"
	filePrefix = "migrate_"
	fileSuffix = ".log"
)

// ResolveDir returns the env override, else the configured dir.
// An empty result disables file logging.
func ResolveDir(configured string) string {
	if dir := strings.TrimSpace(os.Getenv(EnvLogDir)); dir != "" {
		return dir
	}
	return strings.TrimSpace(configured)
}

func filename(day string) string {
	return filePrefix + day + fileSuffix
}

// DailyFile appends to one file per day, switching files when the date rolls over.
type DailyFile struct {
	mu   sync.Mutex
	dir  string
	day  string
	file *os.File
	now  func() time.Time
}

func NewDailyFile(dir string) (*DailyFile, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, err
	}
	return &DailyFile{dir: dir, now: time.Now}, nil
}

func (d *DailyFile) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	day := d.now().Format(dayLayout)
	if d.file == nil || day != d.day {
		if d.file != nil {
			_ = d.file.Close()
			d.file = nil
		}
		f, err := os.OpenFile(filepath.Join(d.dir, filename(day)), os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
		if err != nil {
			return 0, err
		}
		d.file, d.day = f, day
	}
	return d.file.Write(p)
}

func (d *DailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// NewZapLogger logs to stdout and, when dir resolves to a directory, to a daily file in it.
func NewZapLogger(dir string, debug bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if debug {
		level.SetLevel(zap.DebugLevel)
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)}
	if resolved := ResolveDir(dir); resolved != "" {
		file, err := NewDailyFile(resolved)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(encoder, file, level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	_ = zap.RedirectStdLog(logger)
	return logger, nil
}
