// Package atlas provides a client for the ATLAS transient web server API.
//
// # Overview
//
// The server exposes a fixed set of POST endpoints for reading and writing
// VRA scores, object lists, and per-object detection data. Every request is
// authenticated with a 40 character API token sent as
// "Authorization: Token <value>". The token and the server base URL live in
// a small YAML or TOML config file.
//
// # Architecture
//
//   - credential.go: Token value type and its renderings
//   - provider.go: CredentialProvider implementations and the auth-token exchange
//   - config.go: Config file load, reload and persist
//   - executor.go: Executor, the authenticated request loop
//   - client.go, endpoints.go: typed endpoint calls over a Sender
//   - lists.go: immutable list name registry
//   - batch.go: chunked calls for large ID arrays
//   - validate.go: query validation and ATLAS ID checks
//   - errors.go: ConfigError, AuthError, RequestError
//
// # Request Flow
//
// Executor.Send posts a form-encoded payload to {base_url}{suffix} and maps
// the status code:
//
//   - 200, 201: JSON body decoded into Response.Data
//   - 204: Response.Data is NoContent
//   - 401 "Token has expired.": the CredentialProvider fetches a new token,
//     the config is persisted, and the request is sent again
//   - 401 "Invalid token.": the config is reloaded from disk, picking up a
//     token another process already refreshed, and the request is sent again
//   - 401 "Authentication credentials were not provided.": AuthError, no retry
//   - anything else: RequestError
//
// Recovery happens at most once per Send. A second expired or invalid token
// response is an AuthError.
//
// # Usage Example
//
//	exec, err := atlas.Open("/etc/atlasapi/config.yaml",
//		atlas.WithCredentialProvider(atlas.PasswordProvider{Login: login}),
//	)
//	if err != nil {
//		return err
//	}
//	client, err := atlas.NewClient(exec)
//	if err != nil {
//		return err
//	}
//	ids, err := client.ListIDs(ctx, "follow_up")
//
// # Error Handling
//
// Every error returned by this package matches errors.Is(err, atlas.ErrAtlas).
// Use errors.As to tell the kinds apart:
//
//   - *ConfigError: the config file is missing, unreadable or malformed
//   - *AuthError: bad token, failed refresh, or an unrecoverable 401
//   - *RequestError: any other status, an undecodable body, a caller error
//     caught before sending, or a transport failure
//
// # Concurrency
//
// An Executor owns its token and config and is not safe for concurrent use.
// Run one Executor per goroutine. Several processes may share one config file;
// the reload path tolerates another process having rotated the token, but the
// last writer wins.
package atlas
