package provision

import (
	"context"
)

// TokenOutcome classifies the result of provisioning an access token for a
// bot. The three cases are deliberately distinct: "exists" is not a failure
// but a hard platform constraint — once minted, a token secret is never
// redisclosed, so recovering it requires the platform's own
// revoke-and-regenerate flow.
type TokenOutcome int

const (
	// TokenMinted means a fresh token was created and its secret disclosed.
	TokenMinted TokenOutcome = iota
	// TokenExists means a token already exists but its secret cannot be
	// retrieved.
	TokenExists
	// TokenFailed means minting (or the existence check) failed.
	TokenFailed
)

func (o TokenOutcome) String() string {
	switch o {
	case TokenMinted:
		return "minted"
	case TokenExists:
		return "exists"
	case TokenFailed:
		return "failed"
	}
	return "unknown"
}

// TokenResult is the outcome of provisioning one bot's access token.
type TokenResult struct {
	Outcome TokenOutcome
	Secret  string // set only when Outcome == TokenMinted
	Err     error  // set only when Outcome == TokenFailed
}

// provisionToken ensures the bot identified by userID has exactly one
// access token. Existing tokens are never replaced and a second one is
// never minted. A failed existence check counts as TokenFailed rather than
// risking a duplicate mint.
func (e *Engine) provisionToken(ctx context.Context, userID, username string) TokenResult {
	tokens, err := e.client.ListUserTokens(ctx, userID)
	if err != nil {
		return TokenResult{Outcome: TokenFailed, Err: err}
	}
	if len(tokens) > 0 {
		return TokenResult{Outcome: TokenExists}
	}

	token, err := e.client.CreateUserToken(ctx, userID, "provisioned for "+username)
	if err != nil {
		return TokenResult{Outcome: TokenFailed, Err: err}
	}
	return TokenResult{Outcome: TokenMinted, Secret: token.Token}
}
