// Package clock lets time-dependent code take the current time as a
// dependency. Expiry and resend windows are computed from Clocker.Now, and
// tests drive them with Fixed.
package clock
