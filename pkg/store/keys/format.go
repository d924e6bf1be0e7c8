package keys

const (
	// notation dictionary for the persisted layout:
	// <tag>    = 1-byte partition tag, the 1-based position in Partitions
	// <pk>     = 32 raw bytes of an x-only public key
	// <prefix> = first IDPrefixLen bytes of a 32-byte event id
	// <ts>     = 8-byte big-endian unix timestamp
	//
	// author:              <tag><pk>     -> empty
	// contact:             <tag><pk>     -> msgpack Contact
	// profile:             <tag><pk>     -> msgpack Profile
	// textnote:            <tag><prefix> -> msgpack TextNote
	// textnotebytimestamp: <tag><ts>     -> <prefix>
	// system:              0x00<name>    -> engine bookkeeping

	Author              = "author"
	Contact             = "contact"
	Profile             = "profile"
	Chat                = "chat"    // reserved
	Channel             = "channel" // reserved
	TextNote            = "textnote"
	TextNoteByTimestamp = "textnotebytimestamp"

	// IDPrefixLen is the number of leading event id bytes used as the post key.
	// With n stored posts the chance of any two sharing a prefix is about
	// n^2 / 2^65 (roughly 1 in 3.7 million at n = 100k). A colliding post is
	// dropped by the first-write-wins insert; widening the key changes the
	// on-disk layout.
	IDPrefixLen = 8

	TimestampLen = 8
	PublicKeyLen = 32

	SystemTag byte = 0x00

	// RegistryKey holds the ordered partition names the store was created with.
	RegistryKey = "registry"
)

// Partitions is the version-pinned partition list. Order defines the tags;
// append only.
var Partitions = []string{
	Author,
	Contact,
	Profile,
	Chat,
	Channel,
	TextNote,
	TextNoteByTimestamp,
}
