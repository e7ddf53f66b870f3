package util

import (
	"io"

	"github.com/hashicorp/go-multierror"

	log "github.com/armadaproject/htapbench/internal/common/logging"
)

func CloseResource(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.WithError(err).Warnf("Failed to close %s cleanly", name)
	}
}

// CloseAll closes every resource, even when some fail, and returns the combined error.
func CloseAll(resources ...io.Closer) error {
	var result *multierror.Error
	for _, c := range resources {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
