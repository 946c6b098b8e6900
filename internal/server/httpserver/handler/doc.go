// Package handler provides the HTTP handlers of the admin server.
//
// Every JSON response uses the Response envelope. Errors carry the
// domain error code in both the body and the X-Error-Code header.
package handler
