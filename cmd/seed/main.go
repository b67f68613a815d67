package main

import (
	"context"
	"fmt"
	"os"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/linky/pkg/log"
	"github.com/raterudder/linky/pkg/storage"
	"github.com/raterudder/linky/pkg/types"
)

// seed writes a session copied from a logged-in browser into the configured
// store, or clears it, without going through the login form.
func main() {
	s := storage.Configured()
	login := lflag.String("iplanet-directory-pro", "", "Value of the iPlanetDirectoryPro cookie")
	jsessionID := lflag.String("jsessionid", "", "Value of the JSESSIONID cookie")
	clearSession := lflag.Bool("clear", false, "Remove the stored session instead of writing one")
	lflag.Configure()

	ctx := context.Background()
	defer s.Close()

	if *clearSession {
		if err := s.Clear(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to clear session: %v\n", err)
			os.Exit(1)
		}
		log.Ctx(ctx).InfoContext(ctx, "cleared stored session")
		return
	}

	sess := types.Session{
		IPlanetDirectoryPro: *login,
		JSESSIONID:          *jsessionID,
	}
	if !sess.Valid() {
		fmt.Fprintln(os.Stderr, "--iplanet-directory-pro is required")
		os.Exit(1)
	}
	if err := s.Save(ctx, sess); err != nil {
		fmt.Fprintf(os.Stderr, "failed to save session: %v\n", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "seeded stored session")
}
