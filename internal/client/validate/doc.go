// Package validate holds the local, advisory checks run before a form is
// submitted: email shape, password strength, confirmation match and the
// per-form required-field rules. The identity API stays authoritative.
package validate
