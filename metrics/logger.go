package metrics

import (
	"fmt"
	"log"
	"os"
	"path"
)

type Logger interface {
	Log(info *Info)
}

type StdoutLogger struct{}

func NewStdoutLogger() *StdoutLogger {
	return &StdoutLogger{}
}

func (l *StdoutLogger) Log(info *Info) {
	infoStr, err := info.ToJSON()
	if err == nil {
		log.Print(infoStr)
	} else {
		log.Printf("StdoutLogger: error: %v", err)
	}
}

const defaultQueueSize = 2000
const defaultMaxLogFileSize = 1024 * 1024 * 1024
const defaultMaxLogFiles = 10

// FileLogger writes event records to a size-rotated log file via a
// background writer so logging never blocks the request path.
type FileLogger struct {
	Queue          chan *Info
	LogDir         string
	MaxLogFileSize int64
	MaxLogFiles    int
	Verbose        bool
}

func NewFileLogger(logDir string, maxLogFileSize int64, maxLogFiles int, verbose bool) *FileLogger {
	if maxLogFileSize <= 0 {
		maxLogFileSize = defaultMaxLogFileSize
	}
	if maxLogFiles <= 0 {
		maxLogFiles = defaultMaxLogFiles
	}
	logger := &FileLogger{
		Queue:          make(chan *Info, defaultQueueSize),
		LogDir:         logDir,
		MaxLogFileSize: maxLogFileSize,
		MaxLogFiles:    maxLogFiles,
		Verbose:        verbose,
	}

	go logger.startLogWriter()
	return logger
}

func (l *FileLogger) Log(info *Info) {
	l.Queue <- info
}

func (l *FileLogger) startLogWriter() {
	f, err := l.openLogFile()
	if err != nil {
		log.Printf("FileLogger: log open error: %v", err)
	}

	for info := range l.Queue {
		infoStr, err := info.ToJSON()
		if err != nil {
			log.Printf("FileLogger: info.ToJSON() error: %v", err)
			continue
		}

		if f == nil {
			if f, err = l.openLogFile(); err != nil {
				continue
			}
		}

		f, err = l.tryRotateLogFile(f)
		if err != nil {
			continue
		}

		if _, err := f.WriteString(infoStr); err != nil {
			log.Printf("FileLogger: write error: %v", err)
			continue
		}
		f.Sync()
	}
}

func (l *FileLogger) openLogFile() (*os.File, error) {
	logFilePath := path.Join(l.LogDir, "events.log")
	return os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func (l *FileLogger) tryRotateLogFile(currFile *os.File) (*os.File, error) {
	info, err := currFile.Stat()
	if err != nil {
		log.Printf("FileLogger: log rotation error: %v", err)
		return currFile, nil
	}

	if info.Size() < l.MaxLogFileSize {
		return currFile, nil
	}

	currFile.Close()

	// Shift the numbered backlog up, dropping the oldest file.
	oldest := path.Join(l.LogDir, fmt.Sprintf("events.log.%d", l.MaxLogFiles-1))
	if _, err := os.Stat(oldest); err == nil {
		os.Remove(oldest)
	}
	for i := l.MaxLogFiles - 2; i >= 0; i-- {
		from := path.Join(l.LogDir, fmt.Sprintf("events.log.%d", i))
		if _, err := os.Stat(from); err == nil {
			os.Rename(from, path.Join(l.LogDir, fmt.Sprintf("events.log.%d", i+1)))
		}
	}

	currLogFilePath := path.Join(l.LogDir, "events.log")
	if err := os.Rename(currLogFilePath, path.Join(l.LogDir, "events.log.0")); err != nil {
		log.Printf("FileLogger: log rotation error: %v", err)
	} else if l.Verbose {
		log.Printf("FileLogger: log file rotated")
	}

	return l.openLogFile()
}
