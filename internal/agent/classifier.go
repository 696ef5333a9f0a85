package agent

import (
	"strings"

	"github.com/leo/herd/internal/config"
	"github.com/leo/herd/internal/domain"
)

// ClassifierConfig is the subset of AppConfig the classifier needs, held
// separately so it can be constructed directly in tests without going
// through AppConfig's clamping accessors (marker_lookback_lines=0 to mean
// "use the whole buffer" is reachable only this way).
type ClassifierConfig struct {
	StallThresholdSecs        int64
	FinishedMarkers           []string
	WaitingMarkers            []string
	MarkerLookbackLines       int
	WaitingGraceSecs          int64
	TransitionStabilitySecs   int64
}

// ClassifierConfigFromAppConfig builds a ClassifierConfig through AppConfig's
// normal (clamping) accessors.
func ClassifierConfigFromAppConfig(cfg *config.AppConfig) ClassifierConfig {
	return ClassifierConfig{
		StallThresholdSecs:      cfg.StallThresholdSecs,
		FinishedMarkers:         append([]string(nil), cfg.FinishedMarkers...),
		WaitingMarkers:          append([]string(nil), cfg.WaitingMarkers...),
		MarkerLookbackLines:     cfg.MarkerLookbackLines(),
		WaitingGraceSecs:        cfg.StatusWaitingGraceSecs(),
		TransitionStabilitySecs: cfg.StatusTransitionStabilitySecs(),
	}
}

// HeuristicSessionClassifier assesses pane content via marker/question-tail
// heuristics and an inactivity threshold, with transition-stability holds
// and a waiting-grace promotion to WaitingLong.
type HeuristicSessionClassifier struct {
	Config ClassifierConfig
}

func NewHeuristicSessionClassifier(cfg ClassifierConfig) *HeuristicSessionClassifier {
	return &HeuristicSessionClassifier{Config: cfg}
}

func confidenceForState(state ProcessState) uint8 {
	switch state {
	case ProcessFinished:
		return 95
	case ProcessStalled:
		return 90
	case ProcessWaitingLong:
		return 88
	case ProcessWaiting:
		return 78
	case ProcessRunning:
		return 72
	default:
		return 20
	}
}

// stripANSICSI removes ANSI CSI escape sequences byte-by-byte. An ESC byte
// not followed by '[' is dropped on its own; all other bytes are kept.
func stripANSICSI(input string) string {
	var out strings.Builder
	out.Grow(len(input))
	b := []byte(input)
	i := 0
	for i < len(b) {
		if b[i] == 0x1b {
			if i+1 < len(b) && b[i+1] == '[' {
				i += 2
				for i < len(b) {
					c := b[i]
					i++
					if c >= 0x40 && c <= 0x7e {
						break
					}
				}
			} else {
				i++
			}
			continue
		}
		out.WriteByte(b[i])
		i++
	}
	return out.String()
}

// recentMarkerWindow returns the last lookbackLines non-empty lines of
// content (in original order), or the whole content if lookbackLines is 0.
func recentMarkerWindow(content string, lookbackLines int) string {
	if lookbackLines <= 0 {
		return content
	}
	all := strings.Split(content, "\n")
	var nonEmpty []string
	for i := len(all) - 1; i >= 0 && len(nonEmpty) < lookbackLines; i-- {
		if strings.TrimSpace(all[i]) == "" {
			continue
		}
		nonEmpty = append(nonEmpty, all[i])
	}
	if len(nonEmpty) == 0 {
		return content
	}
	for l, r := 0, len(nonEmpty)-1; l < r; l, r = l+1, r-1 {
		nonEmpty[l], nonEmpty[r] = nonEmpty[r], nonEmpty[l]
	}
	return strings.Join(nonEmpty, "\n")
}

func isASCIIAlphanumeric(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// containsMarker does a whole-word match for purely alphanumeric markers,
// falling back to a plain substring match otherwise.
func containsMarker(content, marker string) bool {
	marker = strings.ToLower(strings.TrimSpace(marker))
	if marker == "" {
		return false
	}
	allAlnum := true
	for _, r := range marker {
		if !isASCIIAlphanumeric(r) {
			allAlnum = false
			break
		}
	}
	if allAlnum {
		for _, token := range strings.FieldsFunc(content, func(r rune) bool {
			return !isASCIIAlphanumeric(r)
		}) {
			if token == marker {
				return true
			}
		}
		return false
	}
	return strings.Contains(content, marker)
}

func saturatingSub(a, b uint8) uint8 {
	if b >= a {
		return 0
	}
	return a - b
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Assess implements the classifier algorithm: strip ANSI, check for no
// content, detect finished/waiting markers and question tails over the
// marker lookback window, fall back to an inactivity-based stall check,
// apply a transition-stability hold, then a waiting-grace promotion to
// WaitingLong.
func (c *HeuristicSessionClassifier) Assess(snapshot domain.PaneSnapshot, prior PriorProcessState) ProcessAssessment {
	capturedAt := snapshot.CapturedAtUnix
	lastActivity := snapshot.LastActivityUnix
	inactiveSecs := int64(0)
	if lastActivity > 0 {
		inactiveSecs = maxI64(capturedAt-lastActivity, 0)
	}

	normalized := strings.ToLower(stripANSICSI(snapshot.Content))
	if strings.TrimSpace(normalized) == "" {
		stateEntered := capturedAt
		if prior.StateEnteredUnix != nil {
			stateEntered = *prior.StateEnteredUnix
		}
		return ProcessAssessment{
			DisplayStatus:    StatusUnknown,
			State:            ProcessUnknown,
			Reasons:          []StatusReasonCode{ReasonNoContent},
			Confidence:       confidenceForState(ProcessUnknown),
			CapturedAtUnix:   capturedAt,
			LastActivityUnix: lastActivity,
			InactiveSecs:     inactiveSecs,
			StateEnteredUnix: stateEntered,
			EligibleForHerd:  false,
		}
	}

	markerScope := recentMarkerWindow(normalized, c.Config.MarkerLookbackLines)
	finishedDetected := false
	for _, m := range c.Config.FinishedMarkers {
		if containsMarker(markerScope, m) {
			finishedDetected = true
			break
		}
	}
	waitingDetected := false
	for _, m := range c.Config.WaitingMarkers {
		if containsMarker(markerScope, m) {
			waitingDetected = true
			break
		}
	}
	questionDetected := strings.HasSuffix(strings.TrimRight(markerScope, " \t\n\r"), "?")

	var reasons []StatusReasonCode
	var candidate ProcessState
	switch {
	case finishedDetected:
		reasons = append(reasons, ReasonFinishedMarker)
		candidate = ProcessFinished
	case waitingDetected || questionDetected:
		if waitingDetected {
			reasons = append(reasons, ReasonWaitingMarker)
		}
		if questionDetected {
			reasons = append(reasons, ReasonQuestionTail)
		}
		if prior.State != nil && *prior.State == ProcessWaitingLong {
			candidate = ProcessWaitingLong
		} else {
			candidate = ProcessWaiting
		}
	case inactiveSecs >= maxI64(c.Config.StallThresholdSecs, 0):
		reasons = append(reasons, ReasonInactivityExceeded)
		candidate = ProcessStalled
	default:
		reasons = append(reasons, ReasonActivityRecent)
		candidate = ProcessRunning
	}

	if prior.State != nil && *prior.State != candidate && c.Config.TransitionStabilitySecs > 0 {
		previousEntered := capturedAt
		if prior.StateEnteredUnix != nil {
			previousEntered = *prior.StateEnteredUnix
		}
		if maxI64(capturedAt-previousEntered, 0) < c.Config.TransitionStabilitySecs {
			candidate = *prior.State
			reasons = append(reasons, ReasonTransitionStabilityHold)
		}
	}

	stateEntered := capturedAt
	if prior.State != nil && *prior.State == candidate {
		if prior.StateEnteredUnix != nil {
			stateEntered = *prior.StateEnteredUnix
		}
	}

	waitingSecs := int64(0)
	if candidate == ProcessWaiting || candidate == ProcessWaitingLong {
		if prior.State != nil && (*prior.State == ProcessWaiting || *prior.State == ProcessWaitingLong) {
			if prior.StateEnteredUnix != nil {
				stateEntered = *prior.StateEnteredUnix
			}
		}
		waitingSecs = maxI64(capturedAt-stateEntered, 0)
		if candidate == ProcessWaiting && waitingSecs >= maxI64(c.Config.WaitingGraceSecs, 0) {
			candidate = ProcessWaitingLong
			reasons = append(reasons, ReasonWaitingGraceExceeded)
		}
	}

	confidence := confidenceForState(candidate)
	for _, r := range reasons {
		if r == ReasonTransitionStabilityHold {
			confidence = saturatingSub(confidence, 15)
			break
		}
	}

	return ProcessAssessment{
		DisplayStatus:    candidate.DisplayStatus(),
		State:            candidate,
		Reasons:          reasons,
		Confidence:       confidence,
		CapturedAtUnix:   capturedAt,
		LastActivityUnix: lastActivity,
		InactiveSecs:     inactiveSecs,
		WaitingSecs:      waitingSecs,
		StateEnteredUnix: stateEntered,
		EligibleForHerd:  candidate == ProcessStalled || candidate == ProcessWaitingLong,
	}
}
