package main

// Exit codes for mmbridge commands, classified so operators can tell a bad
// credential from a bad team name from a flaky server.
const (
	ExitSuccess      = 0 // Success
	ExitError        = 1 // General error
	ExitPrecondition = 2 // Missing required URL, token, or team name
	ExitCredential   = 3 // Token rejected (401/403)
	ExitTeamNotFound = 4 // No team with the given name (404)
	ExitServer       = 5 // Server error, invalid response, or timeout
)
