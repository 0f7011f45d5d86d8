package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dkovalov/confidant/internal/common"
	"github.com/dkovalov/confidant/internal/cryptox"
	"github.com/dkovalov/confidant/internal/models"
	"github.com/dkovalov/confidant/internal/profile"
)

// statsWindow bounds how much history the stats command folds in.
const statsWindow = 100

// Enroll walks the user through creating a security profile.
func (a *App) Enroll(ctx context.Context) error {
	userID, err := GetSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}

	levelRaw, err := GetSimpleText(a.reader, "Security level (standard, enhanced, maximum)", a.out)
	if err != nil {
		return err
	}
	level, err := models.ParseSecurityLevel(levelRaw)
	if err != nil {
		return err
	}

	methodsRaw, err := GetSimpleText(a.reader, "Auth methods, comma-separated (password, pin, totp, phrase)", a.out)
	if err != nil {
		return err
	}
	var methods []models.AuthMethod
	for _, name := range strings.Split(methodsRaw, ",") {
		m, err := models.ParseAuthMethod(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		methods = append(methods, m)
	}

	master, err := GetSecret("Enter master password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(master)

	var opts profile.EnrollmentOptions
	for _, m := range methods {
		switch m {
		case models.MethodPin:
			pin, err := GetSecret("Enter PIN", a.out)
			if err != nil {
				return err
			}
			opts.Pin = pin
		case models.MethodPhrase:
			phrase, err := GetSimpleText(a.reader, "Enter recovery phrase", a.out)
			if err != nil {
				return err
			}
			opts.Phrases = append(opts.Phrases, phrase)
		}
	}

	enr, err := a.manager.CreateProfile(ctx, userID, master, level, methods, opts)
	if err != nil {
		return err
	}
	if enr.TotpURL != "" {
		fmt.Fprintf(a.out, "TOTP provisioning URI (add to your authenticator now):\n%s\n", enr.TotpURL)
	}
	fmt.Fprintln(a.out, "Profile created.")
	return nil
}

// Login authenticates and opens a session at the requested access level.
func (a *App) Login(ctx context.Context) error {
	userID, err := GetSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}

	methodRaw, err := GetSimpleText(a.reader, "Auth method", a.out)
	if err != nil {
		return err
	}
	method, err := models.ParseAuthMethod(methodRaw)
	if err != nil {
		return err
	}

	level, err := a.promptLevel("Requested access level")
	if err != nil {
		return err
	}

	credential, err := GetSecret("Enter credential", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(credential)

	token, err := a.manager.Authenticate(ctx, userID, method, credential, level)
	if err != nil {
		return err
	}

	a.userName = userID
	a.token = token
	fmt.Fprintf(a.out, "Logged in at %s.\n", level)
	return nil
}

// Seal encrypts content at a chosen tier and prints the sealed blob.
func (a *App) Seal(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrSessionNotFound
	}

	tier, err := a.promptLevel("Content tier")
	if err != nil {
		return err
	}
	if _, err := a.manager.VerifySession(ctx, a.token, tier); err != nil {
		return err
	}

	text, err := GetMultiline(a.reader, "Enter content", a.out)
	if err != nil {
		return err
	}

	sealed, method, err := a.manager.Encrypt(ctx, a.userName, []byte(text), tier)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "method: %s\n%s\n", method, base64.StdEncoding.EncodeToString(sealed))
	return nil
}

// Open decrypts a sealed blob produced by Seal.
func (a *App) Open(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrSessionNotFound
	}

	methodRaw, err := GetSimpleText(a.reader, "Method (none, symmetric, hybrid)", a.out)
	if err != nil {
		return err
	}

	blobRaw, err := GetSimpleText(a.reader, "Sealed content (base64)", a.out)
	if err != nil {
		return err
	}
	blob, err := base64.StdEncoding.DecodeString(blobRaw)
	if err != nil {
		return fmt.Errorf("%w: not base64", common.ErrDecryptionFailed)
	}

	plaintext, err := a.manager.Decrypt(ctx, a.userName, blob, cryptox.Method(methodRaw))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(plaintext))
	return nil
}

// Stats prints the user's recent authentication summary.
func (a *App) Stats(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrSessionNotFound
	}

	stats, err := a.manager.SecurityStats(ctx, a.userName, statsWindow)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "attempts: %d, successes: %d, failures: %d, success rate: %.2f\n",
		stats.Total, stats.Successes, stats.Failures, stats.SuccessRate)
	if stats.LastSuccess != nil {
		fmt.Fprintf(a.out, "last success: %s\n", stats.LastSuccess)
	}
	if stats.LastFailure != nil {
		fmt.Fprintf(a.out, "last failure: %s\n", stats.LastFailure)
	}
	if stats.LockedUntil != nil {
		fmt.Fprintf(a.out, "locked until: %s\n", stats.LockedUntil)
	}
	return nil
}

// Grant prints a signed, self-contained grant for the current session.
func (a *App) Grant(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrSessionNotFound
	}

	grant, err := a.manager.ExportGrant(ctx, a.token)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, grant)
	return nil
}

// Logout destroys the current session.
func (a *App) Logout(ctx context.Context) error {
	if a.token != "" {
		a.manager.Logout(a.token)
	}
	a.token = ""
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
