// Package cli implements the ipchunk command tree.
//
// Commands:
//
//	size <bytes>        print the chunk size and count chosen for a file size
//	hash <file>         print a file's digest
//	encrypt <file>      chunk and seal a file into an output directory
//	decrypt <dir>       fetch, verify and reassemble an encrypted directory
//	verify <dir>        check every chunk against its content address
//	rekey <dir>         re-encrypt a directory's chunks under a new key
//	keygen <file>       write a random key file
//
// An encrypted directory holds chunks/<index>.cbor, manifest.cbor and a
// human-readable manifest.json. Keys come from a key file (32 raw bytes or
// 64 hex characters) or are derived from a passphrase typed at the terminal.
package cli
