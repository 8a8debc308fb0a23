// Package journal keeps a database record of every transaction the builder signs and
// broadcasts, on sqlite or postgres through gorm.
package journal
