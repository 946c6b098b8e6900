// Package translate turns parsed Redis commands into domain requests.
//
// Every supported command has an entry in a static table holding its
// canonical name, its arity and a handler. Translate looks the command up
// case-insensitively, checks the argument count and runs the handler, which
// validates the remaining arguments and builds exactly one request. A
// command either yields a fully valid request or an error; nothing is
// emitted on failure.
//
// Arity follows Redis: a positive arity is an exact argument count, a
// negative arity -n means at least n arguments. The count includes the
// command name.
//
// Requests may alias the argument bytes of the command they were built
// from. Callers that keep a request beyond the lifetime of the input buffer
// must copy it.
package translate
