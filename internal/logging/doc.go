// Package logging provides structured logging helpers for kubedriver.
//
// All packages log through log/slog. This package only centralizes attribute
// names and sanitizers so that invocation logs look the same everywhere; it
// never configures the default logger.
//
// # Usage Patterns
//
//	logger := logging.WithVerb(slog.Default(), "get")
//	logger.Debug("invoking client",
//	    logging.Namespace("default"),
//	    logging.Server(server),
//	    logging.Argv(action.RedactArgs(argv)))
//
// # Security Considerations
//
//   - API server URLs have IP addresses redacted to prevent topology leakage
//   - User names are hashed before they are logged
//   - Tokens are never logged directly, argv must be redacted by the caller.
//     action.RedactArgs reduces them to SanitizeToken's length marker
package logging
