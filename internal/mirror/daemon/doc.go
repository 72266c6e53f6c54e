// Package daemon watches a directory tree and feeds its changes to the sync engine.
//
// The watcher walks the root on Start and adds every directory below it;
// directories created later are added as their create events arrive, and
// files already inside them are reported as synthetic creates. A rename is
// reported as a delete of the old path; the new path arrives as a create.
//
// Daemon.Run consumes the watcher's events on a single goroutine, so the
// store sees changes in the order the watcher delivered them.
package daemon
