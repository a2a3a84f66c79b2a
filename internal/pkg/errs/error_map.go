/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
denial notices sent to clients and internal error handling.
*/
package errs

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the client-facing denial message.
// Messages containing printf placeholders are templated by NewError's details parameter.
var errorMap = map[int]CustomError{
	// 1xxx: Wire Format and Parse Errors
	ErrParseTruncated:     {Code: ErrParseTruncated, Message: "Failed byte count validation."},
	ErrParseBadBundle:     {Code: ErrParseBadBundle, Message: "Malformed message bundle: count %d."},
	ErrUnknownMessageType: {Code: ErrUnknownMessageType, Message: "Unknown message type: 0x%02x."},
	ErrMessageFormat:      {Code: ErrMessageFormat, Message: "Failed to construct message: %s."},

	// 2xxx: Admission and Login Denials
	ErrServerFull:                  {Code: ErrServerFull, Message: "Denied: Server is full!"},
	ErrLoginAlreadyLoggedIn:        {Code: ErrLoginAlreadyLoggedIn, Message: "Denied: You are already logged in!"},
	ErrLoginConnectionTimedOut:     {Code: ErrLoginConnectionTimedOut, Message: "Denied: Connection timed out!"},
	ErrLoginAccessDenied:           {Code: ErrLoginAccessDenied, Message: "Denied: Access denied!"},
	ErrLoginPingTooHigh:            {Code: ErrLoginPingTooHigh, Message: "Denied: Ping too high: %d."},
	ErrLoginConnectionTypeDenied:   {Code: ErrLoginConnectionTypeDenied, Message: "Denied: Connection type not allowed: %d."},
	ErrLoginInvalidPing:            {Code: ErrLoginInvalidPing, Message: "Denied: Invalid ping."},
	ErrLoginNameEmpty:              {Code: ErrLoginNameEmpty, Message: "Denied: Empty username."},
	ErrLoginNameIllegalChars:       {Code: ErrLoginNameIllegalChars, Message: "Denied: Illegal characters in username."},
	ErrLoginNameTooLong:            {Code: ErrLoginNameTooLong, Message: "Denied: Username too long."},
	ErrLoginClientNameTooLong:      {Code: ErrLoginClientNameTooLong, Message: "Denied: Emulator name too long."},
	ErrLoginClientNameIllegalChars: {Code: ErrLoginClientNameIllegalChars, Message: "Denied: Illegal characters in emulator name."},
	ErrLoginInvalidStatus:          {Code: ErrLoginInvalidStatus, Message: "Denied: Invalid login status: %d."},
	ErrLoginAddressMismatch:        {Code: ErrLoginAddressMismatch, Message: "Denied: Login address does not match connect address."},
	ErrLoginEmulatorRestricted:     {Code: ErrLoginEmulatorRestricted, Message: "Denied: Emulator restricted: %s."},
	ErrLoginDuplicateName:          {Code: ErrLoginDuplicateName, Message: "Denied: Duplicating names is not allowed: %s."},
	ErrLoginAddressInUse:           {Code: ErrLoginAddressInUse, Message: "Denied: Address already logged in as %s."},

	// 3xxx: Chat and Game Business Denials
	ErrNotLoggedIn:      {Code: ErrNotLoggedIn, Message: "Denied: Not logged in."},
	ErrChatSilenced:     {Code: ErrChatSilenced, Message: "Denied: You are silenced!"},
	ErrChatFlood:        {Code: ErrChatFlood, Message: "Denied: Flood control: You are chatting too fast."},
	ErrChatIllegalChars: {Code: ErrChatIllegalChars, Message: "Denied: Illegal characters in message."},
	ErrChatTooLong:      {Code: ErrChatTooLong, Message: "Denied: Message is too long."},

	ErrCreateGameAlreadyInGame: {Code: ErrCreateGameAlreadyInGame, Message: "Denied: You are already in a game."},
	ErrCreateGameNameTooLong:   {Code: ErrCreateGameNameTooLong, Message: "Denied: Game name too long."},
	ErrCreateGameIllegalChars:  {Code: ErrCreateGameIllegalChars, Message: "Denied: Illegal characters in game name."},
	ErrCreateGameFlood:         {Code: ErrCreateGameFlood, Message: "Denied: Flood control: You are creating games too fast."},
	ErrCreateGameMaxGames:      {Code: ErrCreateGameMaxGames, Message: "Denied: Server has reached the maximum of %d games."},
	ErrCreateGameNameEmpty:     {Code: ErrCreateGameNameEmpty, Message: "Denied: Empty game name."},
	ErrCreateGameRestricted:    {Code: ErrCreateGameRestricted, Message: "Denied: This game is not allowed on this server."},

	ErrJoinGameNotFound:      {Code: ErrJoinGameNotFound, Message: "Denied: Game %d does not exist."},
	ErrJoinGameFull:          {Code: ErrJoinGameFull, Message: "Denied: This game is full."},
	ErrJoinGameAlreadyInGame: {Code: ErrJoinGameAlreadyInGame, Message: "Denied: You are already in a game."},
	ErrJoinGameInProgress:    {Code: ErrJoinGameInProgress, Message: "Denied: This game is already in progress."},
	ErrQuitGameNotInGame:     {Code: ErrQuitGameNotInGame, Message: "Denied: You are not in a game."},
	ErrGameChatNotInGame:     {Code: ErrGameChatNotInGame, Message: "Denied: You are not in a game."},

	// 4xxx: Session and Dispatch Errors
	ErrFatalAction:        {Code: ErrFatalAction, Message: "Fatal action error: %s."},
	ErrConnectionRejected: {Code: ErrConnectionRejected, Message: "Connection rejected: %s."},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again."},

	// 6xxx: Operator API Errors
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported media type: expected application/json."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Invalid JSON format in request body."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Unexpected extra content in request body."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please slow down."},
	ErrUnauthorized:         {Code: ErrUnauthorized, Message: "Missing or invalid operator credentials."},
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameter: %s."},
	ErrTargetNotFound:       {Code: ErrTargetNotFound, Message: "No such target: %s."},
	ErrStoreUnavailable:     {Code: ErrStoreUnavailable, Message: "No database access store is configured."},
}
