package constants

const (
	KeySize       = 32 // 256-bit AES data key
	BlockSize     = 16 // AES block, also the unit of the data file
	PointerSize   = 2  // little-endian continuation pointer at the end of a block
	ContentSize   = BlockSize - PointerSize
	SegmentSize   = 16 // one salt or IV inside the IV file
	SegmentCount  = 7
	RandomSize    = SegmentSize * SegmentCount
	HashSize      = 64 // SHA3-512 digest
	KEKIterations = 10 // PBKDF2 rounds of the legacy on-disk format

	PaddingByte    = 0x22
	TerminatorByte = 0x00

	MaxCategoryID = 255
)

// Offsets of the segments inside the IV file.
const (
	PasswordSaltOffset    = 0x00
	KEKSaltOffset         = 0x10
	DataKeyIVOffset       = 0x20
	DataIVOffset          = 0x30
	NameIndexIVOffset     = 0x40
	IDIndexIVOffset       = 0x50
	CategoryIndexIVOffset = 0x60
)

// File names inside a vault directory.
const (
	IVFile            = "iv.dv"
	DataFile          = "data.dv"
	DataTempFile      = "data_tmp.dv"
	NameIndexFile     = "nameIdMap.dv"
	IDIndexFile       = "idIdxMap.dv"
	CategoryIndexFile = "catIdMap.dv"
	PasswordHashFile  = "pwd.dv"
	DataKeyFile       = "dk.dv"
)

const (
	DefaultVaultDir = ".datavault"
	DefaultConfig   = "config.yaml"
)

// HelpText contains the full, formatted usage guide for the CLI.
const HelpText = `
NAME
    datavault - single-user encrypted credential vault (AES-256-CTR, SHA3-512, PBKDF2-HMAC-SHA512).

SYNOPSIS
    datavault [-config <file>] [-dir <vault dir>] <command> [arguments]

COMMANDS
    init
        Create a new vault in the vault directory. Existing vault files are overwritten.

    create <entry>
        Create a new, empty entry.

    set <entry> <category> <value>
        Store <value> under <category> for <entry>, replacing any earlier value.

    get <entry> <category>
        Print the value stored under <category> for <entry>.

    del <entry> <category>
        Remove the value stored under <category> for <entry>.

    list
        List all entries and categories.

    log
        Print the session state (never prints key material).

    shell
        Start the interactive command shell.

    The password is always read interactively so it never ends up in the shell history.

EXIT STATUS
    0 success, 1 memory error, 2 file missing or unreadable, 3 invalid input, 4 logged out.

EXAMPLES
    datavault init
    datavault create GitHub
    datavault set GitHub password gh_pwd
    datavault get GitHub password
`
