// Package domain defines core data models and errors shared across the app.
// It contains plain types (wire/state) only; behaviour lives in the packages
// that own it.
package domain
