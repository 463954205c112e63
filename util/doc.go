// Package util holds small generic helpers shared by the providers.
package util
