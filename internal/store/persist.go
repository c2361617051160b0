package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/minioj/minioj/internal/model"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Snapshot file names, written to the state directory (the CWD in
// production).
const (
	JobsFile     = "jobs.json"
	UsersFile    = "users.json"
	ContestsFile = "contests.json"
)

// SnapshotInterval is how often the background task persists the
// registries.
const SnapshotInterval = 500 * time.Millisecond

// Save writes the three registry snapshots. The clones are taken under the
// registry locks, the files are written outside them. All failures are
// reported together.
func (s *Store) Save(dir string) error {
	jobs := s.Jobs()
	users := s.Users()
	contests := s.Contests()

	var result *multierror.Error
	result = multierror.Append(result,
		writeSnapshot(filepath.Join(dir, JobsFile), jobs),
		writeSnapshot(filepath.Join(dir, UsersFile), users),
		writeSnapshot(filepath.Join(dir, ContestsFile), contests),
	)
	return result.ErrorOrNil()
}

// writeSnapshot writes via a temp file and rename so a crash mid-write
// never truncates an existing snapshot.
func writeSnapshot(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load hydrates the registries from a previous run. A missing or malformed
// file is fatal: the caller refuses to start rather than judge against
// partial state.
func (s *Store) Load(dir string) error {
	var jobs []*model.Job
	if err := readSnapshot(filepath.Join(dir, JobsFile), &jobs); err != nil {
		return err
	}
	var users []*model.User
	if err := readSnapshot(filepath.Join(dir, UsersFile), &users); err != nil {
		return err
	}
	var contests []*model.Contest
	if err := readSnapshot(filepath.Join(dir, ContestsFile), &contests); err != nil {
		return err
	}

	s.jobs.mu.Lock()
	s.jobs.list = jobs
	s.jobs.mu.Unlock()

	s.users.mu.Lock()
	s.users.list = users
	s.users.mu.Unlock()

	s.contests.mu.Lock()
	s.contests.list = contests
	s.contests.mu.Unlock()

	zap.S().Infof("loaded %d jobs, %d users, %d contests from %s", len(jobs), len(users), len(contests), dir)
	return nil
}

func readSnapshot(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// AutoSave persists the registries every interval until ctx is canceled,
// then takes one final snapshot and returns.
func (s *Store) AutoSave(ctx context.Context, dir string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Save(dir); err != nil {
				zap.S().Errorf("final snapshot failed: %v", err)
			}
			return
		case <-ticker.C:
			if err := s.Save(dir); err != nil {
				zap.S().Errorf("snapshot failed: %v", err)
			}
		}
	}
}
