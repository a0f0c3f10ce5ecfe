package mesh

import "fmt"

// Channel names an attribute slot that an index stream can populate.
type Channel int

const (
	ChannelPosition Channel = iota
	ChannelUV
	ChannelNormal
	ChannelTangent
	ChannelBiNormal
	ChannelColor
)

// String returns a human-readable channel name.
func (c Channel) String() string {
	switch c {
	case ChannelPosition:
		return "position"
	case ChannelUV:
		return "uv"
	case ChannelNormal:
		return "normal"
	case ChannelTangent:
		return "tangent"
	case ChannelBiNormal:
		return "binormal"
	case ChannelColor:
		return "color"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// IndexUsage is the Usage tag of a face index stream.
type IndexUsage int

const (
	IndexUnsupported IndexUsage = iota
	IndexPositionJointWeight
	IndexUV
	IndexNormal
	IndexTangentBiNormal
	IndexColor
)

// ParseIndexUsage maps an index stream Usage tag to its kind.
func ParseIndexUsage(usage string) IndexUsage {
	switch usage {
	case "PositionJointWeightIndex":
		return IndexPositionJointWeight
	case "UvIndex":
		return IndexUV
	case "NormalIndex":
		return IndexNormal
	case "TangentBiNormalIndex":
		return IndexTangentBiNormal
	case "ColorIndex":
		return IndexColor
	default:
		return IndexUnsupported
	}
}

// String returns the Usage tag of the index stream.
func (u IndexUsage) String() string {
	switch u {
	case IndexPositionJointWeight:
		return "PositionJointWeightIndex"
	case IndexUV:
		return "UvIndex"
	case IndexNormal:
		return "NormalIndex"
	case IndexTangentBiNormal:
		return "TangentBiNormalIndex"
	case IndexColor:
		return "ColorIndex"
	default:
		return "Unsupported"
	}
}

// Targets returns the channels that share an index stream of this usage.
// Unsupported streams target nothing. Each call returns a new slice.
func (u IndexUsage) Targets() []Channel {
	switch u {
	case IndexPositionJointWeight:
		return []Channel{ChannelPosition}
	case IndexUV:
		return []Channel{ChannelUV}
	case IndexNormal:
		return []Channel{ChannelNormal}
	case IndexTangentBiNormal:
		return []Channel{ChannelTangent, ChannelBiNormal}
	case IndexColor:
		return []Channel{ChannelColor}
	default:
		return nil
	}
}

// Kind returns the attribute kind stored in the channel.
func (c Channel) Kind() AttributeKind {
	switch c {
	case ChannelPosition:
		return Position
	case ChannelUV:
		return UV
	case ChannelNormal:
		return Normal
	case ChannelTangent:
		return Tangent
	case ChannelBiNormal:
		return BiNormal
	case ChannelColor:
		return Color
	default:
		return Unsupported
	}
}
