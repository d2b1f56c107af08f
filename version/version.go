package version

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version = LVSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// LVSemVer is the current version of lightvote.
	// It's the Semantic Version of the software.
	// Must be a string because scripts like dist.sh read this file.
	LVSemVer = "0.3.0"
)

// Protocol is used for implementation agnostic versioning.
type Protocol uint64

// Uint64 returns the Protocol version as a uint64.
func (p Protocol) Uint64() uint64 {
	return uint64(p)
}

// VoteProtocol versions the vote instruction layouts the decoder
// understands. It is bumped whenever a layout is added.
var VoteProtocol Protocol = 2

// Info is what `lightvote version --verbose` prints.
type Info struct {
	Version      string   `json:"version"`
	GitCommit    string   `json:"gitCommit,omitempty"`
	VoteProtocol Protocol `json:"voteProtocol"`
}

// Get returns the version information of the running binary.
func Get() Info {
	return Info{
		Version:      Version,
		GitCommit:    GitCommit,
		VoteProtocol: VoteProtocol,
	}
}
