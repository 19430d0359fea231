package catalog

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

// DiscoverFunc lists the files that should be catalogued right now.
type DiscoverFunc func() ([]Entry, error)

// Checker periodically stats every catalogued file, records whether it is
// still readable and reports files whose content changed since the last check.
type Checker struct {
	db       *DB
	logger   *slog.Logger
	interval time.Duration
	discover DiscoverFunc

	// OnChange, if set, is called once per pass in which any file changed,
	// appeared or disappeared.
	OnChange func()
}

// NewChecker returns a checker running every interval. discover may be nil.
func NewChecker(db *DB, logger *slog.Logger, interval time.Duration, discover DiscoverFunc) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{db: db, logger: logger, interval: interval, discover: discover}
}

// Start runs an immediate check then repeats every interval until ctx is
// cancelled. A non-positive interval runs the single check only.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)
	if c.interval <= 0 {
		c.logger.Info("source check polling disabled", "interval", c.interval)
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll seeds newly discovered files, then checks every catalogued file.
func (c *Checker) CheckAll(ctx context.Context) {
	if c.discover != nil {
		entries, err := c.discover()
		if err != nil {
			c.logger.Warn("source check: discovery incomplete", "error", err)
		}
		if err := c.db.Seed(entries); err != nil {
			c.logger.Error("source check: seed failed", "error", err)
		}
	}

	entries, err := c.db.List()
	if err != nil {
		c.logger.Error("source check: cannot list files", "error", err)
		return
	}

	var ok, missing, changed int
	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		status, mod, size, checkErr := statFile(e.Path)
		errMsg := ""
		if checkErr != nil {
			errMsg = checkErr.Error()
		}
		if err := c.db.UpdateCheck(e.Path, status, errMsg, mod, size); err != nil {
			c.logger.Error("source check: update failed", "path", e.Path, "error", err)
		}

		if status == StatusOK {
			ok++
			if e.ModTime != nil && e.Size != nil && (*e.ModTime != mod || *e.Size != size) {
				changed++
				c.logger.Info("source changed", "path", e.Path)
			}
			if e.LastStatus != nil && *e.LastStatus != StatusOK {
				changed++
				c.logger.Info("source reappeared", "path", e.Path)
			}
			continue
		}
		missing++
		if e.LastStatus == nil || *e.LastStatus == StatusOK {
			changed++
		}
		c.logger.Warn("source unavailable", "path", e.Path, "kind", e.Kind, "status", status, "error", errMsg)
	}

	c.logger.Info("source check complete", "total", len(entries), "ok", ok, "unavailable", missing, "changed", changed)
	if changed > 0 && c.OnChange != nil {
		c.OnChange()
	}
}

func statFile(path string) (status string, mod, size int64, err error) {
	fi, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return StatusMissing, 0, 0, err
	case err != nil:
		return StatusError, 0, 0, err
	case fi.IsDir():
		return StatusError, 0, 0, errors.New("is a directory")
	}
	return StatusOK, fi.ModTime().UnixNano(), fi.Size(), nil
}
