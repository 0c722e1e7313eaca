// pkg/accounts/seed.go
package accounts

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Accounts []struct {
		ID         string `yaml:"id"`
		Endpoint   string `yaml:"endpoint"`
		StorageURL string `yaml:"storage_url"`
		Owner      string `yaml:"owner"` // user uuid granted access
	} `yaml:"accounts"`
}

// SeedFromFile loads dev accounts from a YAML file. Existing accounts are
// left untouched so the seed is safe to re-run on every boot.
func SeedFromFile(ctx context.Context, st Store, path string, log *zap.SugaredLogger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}
	for _, e := range f.Accounts {
		if _, err := st.Get(ctx, e.ID); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		a, err := New(e.ID, e.Endpoint)
		if err != nil {
			return err
		}
		if e.StorageURL != "" {
			a = a.WithStorageURL(e.StorageURL)
		}
		owner := uuid.Nil
		if e.Owner != "" {
			if id, err := uuid.Parse(e.Owner); err == nil {
				owner = id
			} else {
				log.Warnw("seed: invalid owner uuid", "account_id", e.ID, "owner", e.Owner)
			}
		}
		if err := st.Create(ctx, a, owner); err != nil && !errors.Is(err, ErrExists) {
			return err
		}
		if owner != uuid.Nil {
			if err := st.GrantAccess(ctx, owner, e.ID); err != nil {
				return err
			}
		}
		log.Infow("seeded account", "account_id", e.ID)
	}
	return nil
}
