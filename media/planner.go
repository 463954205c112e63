package media

import "math"

// MB is the binary megabyte used for every size limit.
const MB = 1 << 20

// Planner defaults.
const (
	DefaultTargetMB       = 24
	DefaultMinTailSeconds = 30
	DefaultMaxSegmentMB   = 25
)

// Plan is the outcome of planning. When SplitRequired is false the source
// is sent whole and SegmentDurationSeconds is 0.
type Plan struct {
	SegmentDurationSeconds int
	SplitRequired          bool
}

// SegmentCount returns how many segments a split of duration yields.
func (p Plan) SegmentCount(duration float64) int {
	if !p.SplitRequired || p.SegmentDurationSeconds <= 0 {
		return 1
	}
	return int(math.Ceil(duration / float64(p.SegmentDurationSeconds)))
}

// Limits bound the planner. Zero fields take the package defaults.
type Limits struct {
	// TargetMB is the desired segment size.
	TargetMB float64 `yaml:"target_mb" mapstructure:"target_mb" validate:"gte=0"`
	// MinTailSeconds is the shortest acceptable final segment.
	MinTailSeconds float64 `yaml:"min_tail_seconds" mapstructure:"min_tail_seconds" validate:"gte=0"`
	// MaxSegmentMB caps the estimated size of a stretched segment.
	MaxSegmentMB float64 `yaml:"max_segment_mb" mapstructure:"max_segment_mb" validate:"gte=0"`
}

func (l Limits) withDefaults() Limits {
	if l.TargetMB <= 0 {
		l.TargetMB = DefaultTargetMB
	}
	if l.MinTailSeconds <= 0 {
		l.MinTailSeconds = DefaultMinTailSeconds
	}
	if l.MaxSegmentMB <= 0 {
		l.MaxSegmentMB = DefaultMaxSegmentMB
	}
	return l
}

// NewPlan plans with the default tail and size cap.
func NewPlan(duration float64, byteSize int64, targetMB float64) Plan {
	return Limits{TargetMB: targetMB}.Plan(duration, byteSize)
}

// Plan picks a segment length so each segment is about TargetMB at the
// source's average bitrate. A final segment shorter than MinTailSeconds is
// folded into the others by stretching them, unless that pushes a segment
// past MaxSegmentMB, in which case one more segment is added instead.
// An unknown duration or size means no split.
func (l Limits) Plan(duration float64, byteSize int64) Plan {
	if duration <= 0 || byteSize <= 0 {
		return Plan{}
	}
	l = l.withDefaults()

	bitrate := float64(byteSize) * 8 / duration
	segDur := math.Ceil(l.TargetMB * MB * 8 / bitrate)
	nFull := math.Floor(duration / segDur)
	tail := duration - nFull*segDur

	if tail < l.MinTailSeconds && nFull > 0 {
		segDur = math.Ceil(duration / nFull)
		if segDur*bitrate/8 > l.MaxSegmentMB*MB {
			segDur = math.Ceil(duration / (nFull + 1))
		}
	}
	if segDur >= duration {
		return Plan{}
	}
	return Plan{SegmentDurationSeconds: int(segDur), SplitRequired: true}
}
