package persistence

import (
	"encoding/json"
	"fmt"

	"housingcore/pkg/domain"
)

// Bucket names in load order. Snapshot stores keep one JSON payload per bucket.
const (
	BucketUsers         = "users"
	BucketProjects      = "projects"
	BucketApplications  = "applications"
	BucketEnquiries     = "enquiries"
	BucketRegistrations = "registrations"
	BucketBookings      = "bookings"
)

// Buckets lists every bucket in load order.
var Buckets = []string{
	BucketUsers,
	BucketProjects,
	BucketApplications,
	BucketEnquiries,
	BucketRegistrations,
	BucketBookings,
}

// EncodeBucket marshals the named collection of g.
func EncodeBucket(g domain.Graph, bucket string) ([]byte, error) {
	target, ok := bucketTarget(&g, bucket)
	if !ok {
		return nil, fmt.Errorf("unknown bucket %s", bucket)
	}
	return json.Marshal(target)
}

// DecodeBucket unmarshals payload into the named collection of g. Unknown
// buckets are ignored so older snapshots with extra tables still load.
func DecodeBucket(g *domain.Graph, bucket string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	target, ok := bucketTarget(g, bucket)
	if !ok {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}

func bucketTarget(g *domain.Graph, bucket string) (any, bool) {
	switch bucket {
	case BucketUsers:
		return &g.Users, true
	case BucketProjects:
		return &g.Projects, true
	case BucketApplications:
		return &g.Applications, true
	case BucketEnquiries:
		return &g.Enquiries, true
	case BucketRegistrations:
		return &g.Registrations, true
	case BucketBookings:
		return &g.Bookings, true
	}
	return nil, false
}
