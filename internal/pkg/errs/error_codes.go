/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific protocol, admission, and business errors both
internally within the server and in denial notices sent back to clients.
*/
package errs

// 1xxx: Wire Format and Parse Errors
const (
	// ErrParseTruncated indicates a datagram ended before all fields of a message could be read.
	ErrParseTruncated = 1001

	// ErrParseBadBundle indicates the bundle header was malformed (bad count or length field).
	ErrParseBadBundle = 1002

	// ErrUnknownMessageType indicates a message carried a type identifier with no registered codec.
	ErrUnknownMessageType = 1003

	// ErrMessageFormat indicates an outbound message could not be constructed from the given fields.
	ErrMessageFormat = 1004
)

// 2xxx: Admission and Login Denials
const (
	// ErrServerFull indicates the server is at capacity and the caller is not elevated.
	ErrServerFull = 2001

	// ErrLoginAlreadyLoggedIn indicates a login request from a session that already completed login.
	ErrLoginAlreadyLoggedIn = 2002

	// ErrLoginConnectionTimedOut indicates the half-open registry entry was reaped before login.
	ErrLoginConnectionTimedOut = 2003

	// ErrLoginAccessDenied indicates the source address is banned.
	ErrLoginAccessDenied = 2004

	// ErrLoginPingTooHigh indicates the reported ping exceeds the configured maximum.
	ErrLoginPingTooHigh = 2005

	// ErrLoginConnectionTypeDenied indicates the requested connection type is not in the allowed set.
	ErrLoginConnectionTypeDenied = 2006

	// ErrLoginInvalidPing indicates a negative ping value.
	ErrLoginInvalidPing = 2007

	// ErrLoginNameEmpty indicates an empty or blank user name.
	ErrLoginNameEmpty = 2008

	// ErrLoginNameIllegalChars indicates the user name contains forbidden characters or substrings.
	ErrLoginNameIllegalChars = 2009

	// ErrLoginNameTooLong indicates the user name exceeds the configured maximum length.
	ErrLoginNameTooLong = 2010

	// ErrLoginClientNameTooLong indicates the emulator client string exceeds the configured maximum.
	ErrLoginClientNameTooLong = 2011

	// ErrLoginClientNameIllegalChars indicates the emulator client string contains forbidden characters.
	ErrLoginClientNameIllegalChars = 2012

	// ErrLoginInvalidStatus indicates the registry entry is no longer in CONNECTING status.
	ErrLoginInvalidStatus = 2013

	// ErrLoginAddressMismatch indicates the login source address differs from the connect address.
	ErrLoginAddressMismatch = 2014

	// ErrLoginEmulatorRestricted indicates access control rejected the emulator client type.
	ErrLoginEmulatorRestricted = 2015

	// ErrLoginDuplicateName indicates another logged-in user already holds this name.
	ErrLoginDuplicateName = 2016

	// ErrLoginAddressInUse indicates the address is already logged in under a different name
	// and multiple connections are disallowed.
	ErrLoginAddressInUse = 2017
)

// 3xxx: Chat and Game Business Denials
const (
	// ErrNotLoggedIn indicates an operation that requires a completed login.
	ErrNotLoggedIn = 3001

	// ErrChatSilenced indicates the source address is silenced by access control.
	ErrChatSilenced = 3002

	// ErrChatFlood indicates the per-user chat flood window was violated.
	ErrChatFlood = 3003

	// ErrChatIllegalChars indicates the chat message contains control characters.
	ErrChatIllegalChars = 3004

	// ErrChatTooLong indicates the chat message exceeds the configured maximum length.
	ErrChatTooLong = 3005

	// ErrCreateGameAlreadyInGame indicates the creator is already a member of a game.
	ErrCreateGameAlreadyInGame = 3101

	// ErrCreateGameNameTooLong indicates the game name exceeds the configured maximum length.
	ErrCreateGameNameTooLong = 3102

	// ErrCreateGameIllegalChars indicates the game name contains forbidden characters.
	ErrCreateGameIllegalChars = 3103

	// ErrCreateGameFlood indicates the per-user create-game flood window was violated.
	ErrCreateGameFlood = 3104

	// ErrCreateGameMaxGames indicates the configured maximum number of concurrent games is reached.
	ErrCreateGameMaxGames = 3105

	// ErrCreateGameNameEmpty indicates an empty game name.
	ErrCreateGameNameEmpty = 3106

	// ErrCreateGameRestricted indicates access control rejected the game name.
	ErrCreateGameRestricted = 3107

	// ErrJoinGameNotFound indicates the requested game id is not in the registry.
	ErrJoinGameNotFound = 3201

	// ErrJoinGameFull indicates the game is at player capacity.
	ErrJoinGameFull = 3202

	// ErrJoinGameAlreadyInGame indicates the joiner is already a member of a game.
	ErrJoinGameAlreadyInGame = 3203

	// ErrJoinGameInProgress indicates the game has already started playing.
	ErrJoinGameInProgress = 3204

	// ErrQuitGameNotInGame indicates a quit-game request from a user with no current game.
	ErrQuitGameNotInGame = 3301

	// ErrGameChatNotInGame indicates a game chat request from a user with no current game.
	ErrGameChatNotInGame = 3302
)

// 4xxx: Session and Dispatch Errors
const (
	// ErrFatalAction indicates an action received the wrong concrete message type.
	// This terminates the owning connection only.
	ErrFatalAction = 4001

	// ErrConnectionRejected indicates the connect handshake was refused.
	ErrConnectionRejected = 4002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)

// 6xxx: Operator API Errors
const (
	// ErrUnsupportedMediaType indicates the request Content-Type is not application/json.
	ErrUnsupportedMediaType = 6001

	// ErrInvalidJSONFormat indicates the request body could not be decoded into the target struct.
	ErrInvalidJSONFormat = 6002

	// ErrExtraContentInBody indicates trailing content after the JSON document.
	ErrExtraContentInBody = 6003

	// ErrRateLimitExceeded indicates the per-IP request rate limit was exceeded.
	ErrRateLimitExceeded = 6004

	// ErrUnauthorized indicates a missing or invalid operator token on a protected endpoint.
	ErrUnauthorized = 6005

	// ErrInvalidParams indicates a request parameter failed validation.
	ErrInvalidParams = 6006

	// ErrTargetNotFound indicates the named user or game does not exist.
	ErrTargetNotFound = 6007

	// ErrStoreUnavailable indicates the endpoint needs the database access store
	// and the server is running on static lists.
	ErrStoreUnavailable = 6008
)
