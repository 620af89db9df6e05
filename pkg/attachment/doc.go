// Package attachment attaches exactly one stored file to a persisted record.
//
// An Attachment is composed once per record type over a storage disk and the
// record's persistence. Every record owns the storage directory
//
//	/{collection}/{id}/
//
// and at most one file inside it, at /{collection}/{id}/{file name}. The
// record's file name field is the single source of truth for whether a file
// is attached:
//
//	Empty --StoreFile--> Present --StoreFile--> Present --DeleteFile--> Empty
//
// StoreFile always empties the directory before writing the new file, and
// the owning repository calls BeforeDelete before removing the record so no
// file outlives its record. The two deletes are not atomic.
//
// Passing persist=false to StoreFile or DeleteFile changes the file on the
// disk and the field in memory only. Until the record is saved, a reload
// from the database shows the old file name while the disk already holds
// the new state.
//
// Concurrent StoreFile calls for the same record may interleave their
// delete and write steps, leaving the field naming one file while the
// directory holds another. Use WithLocker to serialize calls within one
// process; nothing coordinates separate processes.
package attachment
