// Package runstore persists per-menu pipeline state in SQLite so a run can
// be inspected after the fact and restarted without losing track of which
// menus already produced button images.
package runstore
