// Package schema defines the records docmirror keeps in its relational store
// and the rules that map a file path onto them.
//
// # Records
//
// The store holds two tables:
//
//	folders(id, name UNIQUE, parent_id -> folders.id)
//	documents(id, filename, content, folder_id -> folders.id, updated_at)
//
// A Folder is created lazily the first time a document inside it (or inside
// one of its children) is observed. Its parent is fixed by the first insert:
// later observations of a folder with the same name under a different parent
// do not move it. A Document holds the full text of one file and is replaced
// wholesale on every change.
//
// # Locating a file
//
// Locate splits a path into the three names the store needs:
//
//	/srv/docs/finance/q1/report.txt
//	    Filename: report.txt
//	    Folder:   q1
//	    Parent:   finance
//
// When the watched root is known, a file directly inside the root gets the
// root directory as its folder and no parent.
//
// # Reading content
//
// ReadText reads a file as UTF-8 text. Binary files (NUL bytes or invalid
// UTF-8) and files above the configured size limit are rejected so that a
// failed read never produces a partial write.
package schema
