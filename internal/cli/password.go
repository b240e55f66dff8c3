package cli

import (
	"context"
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/common"
	"github.com/ledgerkeep/ledgerkeep/internal/cryptox"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
)

// enterPassword reads the encryption password into the session. A local
// argon2id check catches typos early; the real proof is decrypting the remote
// backup, which fails closed on a wrong password anyway.
func (a *App) enterPassword(ctx context.Context) {
	pw, err := getPassword(a.out, "Encryption password")
	if err != nil {
		a.log.Error(ctx, "could not read password", "error", err)
		return
	}
	defer common.WipeByteArray(pw)
	if len(pw) == 0 {
		fmt.Fprintln(a.out, "Password cannot be empty")
		return
	}

	hash, err := a.store.KV.Get(ctx, store.KeyPasswordHash)
	if err != nil {
		a.log.Error(ctx, "could not read stored password hash", "error", err)
		return
	}

	if hash == nil {
		confirm, err := getPassword(a.out, "Confirm password")
		if err != nil {
			a.log.Error(ctx, "could not read password", "error", err)
			return
		}
		defer common.WipeByteArray(confirm)
		if string(pw) != string(confirm) {
			fmt.Fprintln(a.out, "Passwords do not match")
			return
		}
		h, salt := cryptox.HashPassword(string(pw))
		if err := a.store.KV.Set(ctx, store.KeyPasswordHash, []byte(h)); err != nil {
			a.log.Error(ctx, "could not store password hash", "error", err)
			return
		}
		if err := a.store.KV.Set(ctx, store.KeyPasswordSalt, []byte(salt)); err != nil {
			a.log.Error(ctx, "could not store password salt", "error", err)
			return
		}
	} else {
		salt, err := a.store.KV.Get(ctx, store.KeyPasswordSalt)
		if err != nil {
			a.log.Error(ctx, "could not read stored password salt", "error", err)
			return
		}
		if !cryptox.VerifyPassword(string(pw), string(hash), string(salt)) {
			fmt.Fprintln(a.out, common.ErrDecryption.Error())
			return
		}
	}

	a.session.SetPassword(string(pw))
	fmt.Fprintln(a.out, "Password set")
}
