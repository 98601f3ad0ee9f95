package fetch

import (
	"context"
	"io"
	"strings"

	"github.com/opencontainers/go-digest"
)

// SHA384Predicate accepts content whose SHA-384 digest matches the sha384:
// entry in hashes. Content is rejected when no such entry exists.
func SHA384Predicate(hashes []string) Predicate {
	return DigestPredicate(hashes, digest.SHA384)
}

// DigestPredicate accepts content whose digest under alg matches the
// corresponding "alg:encoded" entry in hashes.
func DigestPredicate(hashes []string, alg digest.Algorithm) Predicate {
	return func(ctx context.Context, r io.Reader) (bool, error) {
		expected, ok := FindDigest(hashes, alg)
		if !ok {
			return false, nil
		}

		verifier := expected.Verifier()
		if _, err := io.Copy(verifier, &contextReader{ctx: ctx, r: r}); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			return false, nil
		}
		return verifier.Verified(), nil
	}
}

// FindDigest returns the first valid entry in hashes for alg.
// Algorithm names and hex digests are matched case-insensitively.
func FindDigest(hashes []string, alg digest.Algorithm) (digest.Digest, bool) {
	for _, h := range hashes {
		name, encoded, found := strings.Cut(strings.TrimSpace(h), ":")
		if !found || !strings.EqualFold(name, alg.String()) {
			continue
		}
		d := digest.NewDigestFromEncoded(alg, strings.ToLower(encoded))
		if d.Validate() == nil {
			return d, true
		}
	}
	return "", false
}
