// Package apiclient calls the SMS REST backend on behalf of one browser
// session.
//
// Every request carries Content-Type: application/json and, when the call
// context holds a token (see WithToken), an Authorization: Bearer header. A
// 401 response is broadcast to Subscribe listeners as an UnauthorizedEvent so
// the owning session can be cleared, and surfaces to the caller as an error
// matching ErrUnauthorized. Other non-2xx responses surface as *Error.
package apiclient
