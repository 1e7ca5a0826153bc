package main

// Exit codes for mmsetup commands. Partial provisioning failure is a
// distinct nonzero code so automation can tell "nothing happened" from
// "most things happened".
const (
	ExitSuccess      = 0 // Success
	ExitError        = 1 // General error (invalid arguments, runtime failure)
	ExitPrecondition = 2 // Missing required URL, credential, or manifest
	ExitAuthFailed   = 3 // All session token extraction strategies exhausted
	ExitPartial      = 4 // One or more resources failed to provision
)
