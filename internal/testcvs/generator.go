package testcvs

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/okian/vitae/pkg/logger"
)

// areaProfiles drives synthetic CV generation. Each profile carries the
// vocabulary a grader would associate with that area.
var areaProfiles = map[string][]string{
	"legal": {
		"contract review and drafting", "regulatory compliance audits",
		"corporate governance advisory", "litigation support",
		"intellectual property filings", "GDPR and data protection counsel",
	},
	"tech": {
		"backend service development in Go and Python", "distributed systems design",
		"CI/CD pipeline ownership", "API design and code review",
		"performance profiling and optimization", "cloud-native deployments on Kubernetes",
	},
	"finance": {
		"financial modelling and forecasting", "quarterly reporting under IFRS",
		"treasury and cash-flow management", "audit preparation",
		"budget planning for multi-entity groups", "risk and compliance reporting",
	},
	"infrastructure": {
		"data-centre capacity planning", "network architecture and routing",
		"Terraform-managed cloud estates", "incident response and on-call rotation",
		"observability stack operation", "storage and backup administration",
	},
	"marketing": {
		"multi-channel campaign management", "brand strategy development",
		"SEO and content planning", "marketing analytics and attribution",
		"product launch coordination", "social media growth programmes",
	},
	"operations": {
		"supply chain coordination", "process improvement initiatives",
		"vendor and procurement management", "logistics scheduling",
		"quality assurance programmes", "cross-team delivery planning",
	},
}

var seniorities = []string{"Junior", "Mid-level", "Senior", "Lead", "Principal"}

// randomInt returns a random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateCVs creates the requested number of synthetic CVs with a
// varied area distribution.
func generateCVs(ctx context.Context, config *Config, stats *Stats) ([]CV, error) {
	logger.Get().Info(ctx, "generating synthetic CVs", logger.Int("numCVs", config.NumCVs))

	areas := make([]string, 0, len(areaProfiles))
	for area := range areaProfiles {
		areas = append(areas, area)
	}

	cvs := make([]CV, config.NumCVs)
	for i := 0; i < config.NumCVs; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during CV generation: %w", ctx.Err())
		default:
		}
		area := areas[randomInt(len(areas))]
		cvs[i] = generateSingleCV(i, area)
	}

	stats.CVsGenerated = len(cvs)
	logger.Get().Info(ctx, "generated CVs successfully", logger.Int("count", len(cvs)))
	return cvs, nil
}

// generateSingleCV builds one CV biased toward the given area.
func generateSingleCV(index int, area string) CV {
	profile := areaProfiles[area]
	seniority := seniorities[randomInt(len(seniorities))]
	years := 1 + randomInt(20)

	var b strings.Builder
	fmt.Fprintf(&b, "%s professional with %d years of experience.\n\n", seniority, years)
	b.WriteString("Experience highlights:\n")

	// Three to five responsibilities drawn from the area profile.
	picks := 3 + randomInt(3)
	for j := 0; j < picks; j++ {
		fmt.Fprintf(&b, "- %s\n", profile[randomInt(len(profile))])
	}

	// Occasionally mix in a line from another area so scores spread.
	if randomInt(3) == 0 {
		for other, lines := range areaProfiles {
			if other != area {
				fmt.Fprintf(&b, "- %s\n", lines[randomInt(len(lines))])
				break
			}
		}
	}

	return CV{
		Filename: fmt.Sprintf("candidate_%04d_%s.txt", index, area),
		CVText:   b.String(),
		Area:     area,
	}
}
