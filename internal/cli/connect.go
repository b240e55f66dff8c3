package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/backend"
	"github.com/ledgerkeep/ledgerkeep/internal/common"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) connect(ctx context.Context, backendType string) {
	var cfg *backend.Config
	var err error

	switch backendType {
	case backend.TypeS3:
		cfg, err = a.promptS3Config()
	case backend.TypeHTTP:
		cfg, err = a.promptHTTPConfig()
	case backend.TypeLocalDir:
		cfg, err = a.promptLocalDirConfig()
	default:
		fmt.Fprintln(a.out, "Unknown backend type:", backendType)
		return
	}
	if err != nil {
		a.log.Error(ctx, "could not read connection settings", "error", err)
		return
	}

	b, err := a.registry.CreateAndInitialize(ctx, cfg)
	if err != nil {
		fmt.Fprintln(a.out, "Connection failed:", err)
		return
	}
	if err := b.Authenticate(ctx); err != nil {
		fmt.Fprintln(a.out, "Authentication failed:", err)
		a.registry.ClearActive()
		return
	}

	// The HTTP provider trades the password for a refresh token during
	// Authenticate; carry it into the persisted config so restarts
	// reconnect without re-entering credentials.
	if hb, ok := b.(*backend.HTTPBackend); ok && cfg.HTTP != nil {
		cfg.HTTP.RefreshToken = hb.RefreshTokenForPersistence()
	}
	if err := a.saveBackendConfig(ctx, cfg); err != nil {
		a.log.Error(ctx, "could not persist connection config", "error", err)
	}

	a.session.SetConnected(true)
	fmt.Fprintf(a.out, "Connected to %s\n", b.Type())
}

func (a *App) saveBackendConfig(ctx context.Context, cfg *backend.Config) error {
	raw, err := json.Marshal(cfg.Redacted())
	if err != nil {
		return err
	}
	return a.store.KV.Set(ctx, store.KeyBackendConfig, raw)
}

func (a *App) disconnect(ctx context.Context) {
	if b := a.registry.Active(); b != nil {
		b.SignOut(ctx)
	}
	a.registry.ClearActive()
	a.session.SetConnected(false)
	if err := a.store.KV.Delete(ctx, store.KeyBackendConfig); err != nil {
		a.log.Error(ctx, "could not remove saved connection config", "error", err)
	}
	fmt.Fprintln(a.out, "Disconnected")
}

func (a *App) promptS3Config() (*backend.Config, error) {
	region, err := getSimpleText(a.reader, "Region (e.g. us-east-1)", a.out)
	if err != nil {
		return nil, err
	}
	endpoint, err := getSimpleText(a.reader, "Endpoint URL (empty for AWS)", a.out)
	if err != nil {
		return nil, err
	}
	bucket, err := getSimpleText(a.reader, "Bucket", a.out)
	if err != nil {
		return nil, err
	}
	accessKey, err := getSimpleText(a.reader, "Access key ID", a.out)
	if err != nil {
		return nil, err
	}
	secret, err := getPassword(a.out, "Secret access key")
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(secret)

	return &backend.Config{
		Type: backend.TypeS3,
		S3: &backend.S3Config{
			Region:          region,
			Endpoint:        endpoint,
			Bucket:          bucket,
			AccessKeyID:     accessKey,
			SecretAccessKey: string(secret),
		},
	}, nil
}

func (a *App) promptHTTPConfig() (*backend.Config, error) {
	baseURL, err := getSimpleText(a.reader, "Server URL", a.out)
	if err != nil {
		return nil, err
	}
	username, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return nil, err
	}
	password, err := getPassword(a.out, "Account password")
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(password)

	return &backend.Config{
		Type: backend.TypeHTTP,
		HTTP: &backend.HTTPConfig{
			BaseURL:  baseURL,
			Username: username,
			Password: string(password),
		},
	}, nil
}

func (a *App) promptLocalDirConfig() (*backend.Config, error) {
	dir, err := getSimpleText(a.reader, "Directory path", a.out)
	if err != nil {
		return nil, err
	}
	return &backend.Config{
		Type:     backend.TypeLocalDir,
		LocalDir: &backend.LocalDirConfig{Dir: dir},
	}, nil
}
