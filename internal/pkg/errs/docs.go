// Package errs provides the error types shared by the shipping service layers.
//
// Every type pairs a sentinel (ErrObjectNotFound, ErrValueIsInvalid,
// ErrValueIsRequired, ErrDuplicateKey) with a struct carrying the details.
// Unwrap returns the sentinel, so callers classify failures with errors.Is
// and read the details with errors.As:
//
//	var notFound *errs.ObjectNotFoundError
//	if errors.As(err, &notFound) {
//	    return c.JSON(http.StatusNotFound, ...)
//	}
package errs
