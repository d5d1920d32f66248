package detect

import (
	"strings"

	"github.com/use-agent/revscan/models"
)

// Confidence scores a finished scan. Signals weigh in as follows: a live
// pixel hit counts 3, a pixel inferred only from a CSP allowlist counts 1,
// an embedded engine detection counts 3, each piece of DOM evidence counts
// 1, a followed booking link counts 1, and any recorded error subtracts 1.
//
// When the only pixel signal is the CSP allowlist the result is capped at
// medium, since the pixel never actually fired.
func Confidence(result *models.DetectionResult) string {
	cspOnly := false
	for _, e := range result.Errors {
		if strings.Contains(e, "CSP allowlist") {
			cspOnly = true
			break
		}
	}

	score := 0
	if result.PixelDetected {
		if cspOnly {
			score += 1
		} else {
			score += 3
		}
	}
	if result.GameChangerDetected {
		score += 3
	}
	score += len(result.GameChangerEvidence)
	if result.BookingLinkFollowed != nil {
		score += 1
	}
	if len(result.Errors) > 0 {
		score -= 1
	}

	if cspOnly {
		if score >= 2 {
			return models.ConfidenceMedium
		}
		return models.ConfidenceLow
	}

	switch {
	case score >= 4:
		return models.ConfidenceHigh
	case score >= 2:
		return models.ConfidenceMedium
	case score >= 1:
		return models.ConfidenceLow
	}
	return models.ConfidenceNone
}
