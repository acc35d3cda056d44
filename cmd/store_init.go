package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/store"
	sfpkg "github.com/sells-group/leadgen-cli/pkg/salesforce"
)

const defaultSQLitePath = "leadgen.db"

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.SQLitePath
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore connects to the configured store and applies migrations.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (LEADGEN_SALESFORCE_CLIENT_ID)")
	}

	return sfpkg.Login(sfpkg.Credentials{
		LoginURL:      cfg.Salesforce.LoginURL,
		Username:      cfg.Salesforce.Username,
		Password:      cfg.Salesforce.Password,
		SecurityToken: cfg.Salesforce.SecurityToken,
		ClientID:      cfg.Salesforce.ClientID,
		ClientSecret:  cfg.Salesforce.ClientSecret,
	}, sfpkg.WithRateLimit(5))
}
