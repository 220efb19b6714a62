package database

import (
	"context"
	"fmt"
	"regexp"

	"github.com/hashicorp/go-version"
	"github.com/spf13/cast"
)

// FeatureProber is implemented by connections that can report dialect features
// depending on the server version.
type FeatureProber interface {
	SupportsRightJoin(ctx context.Context) (bool, error)
}

// SQLite only understands RIGHT JOIN from 3.39.0 on.
var sqliteRightJoin = version.Must(version.NewVersion("3.39.0"))

var leadingVersion = regexp.MustCompile(`^v?(\d+(?:\.\d+){0,2})`)

func versionQuery(p Provider) string {
	switch p {
	case PostgreSQL:
		return "SHOW server_version"
	case SQLite:
		return "SELECT sqlite_version()"
	default:
		return "SELECT version()"
	}
}

// parseServerVersion extracts the numeric part of strings such as
// "8.0.36-0ubuntu0.22.04.1", "10.11.6-MariaDB" or "16.2 (Debian 16.2-1)".
func parseServerVersion(raw string) (*version.Version, error) {
	m := leadingVersion.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("unrecognized server version %q", raw)
	}
	return version.NewVersion(m[1])
}

// ServerVersion queries the server (or embedded engine) version.
func (s *SQL) ServerVersion(ctx context.Context) (*version.Version, error) {
	raw, err := s.QueryScalar(ctx, versionQuery(s.provider))
	if err != nil {
		return nil, err
	}
	return parseServerVersion(cast.ToString(raw))
}

func supportsRightJoin(p Provider, v *version.Version) bool {
	if p != SQLite {
		return true
	}
	return v.GreaterThanOrEqual(sqliteRightJoin)
}

// SupportsRightJoin implements FeatureProber. The answer is probed once per
// connection.
func (s *SQL) SupportsRightJoin(ctx context.Context) (bool, error) {
	if s.provider != SQLite {
		return true, nil
	}

	s.featureMu.Lock()
	defer s.featureMu.Unlock()
	if s.rightJoin != nil {
		return *s.rightJoin, nil
	}

	v, err := s.ServerVersion(ctx)
	if err != nil {
		return false, err
	}
	ok := supportsRightJoin(s.provider, v)
	s.rightJoin = &ok
	return ok, nil
}

var _ FeatureProber = (*SQL)(nil)
