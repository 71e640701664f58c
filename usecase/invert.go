package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AzielCF/az-invert/domains/artifact"
	domainCache "github.com/AzielCF/az-invert/domains/cache"
	domainInvert "github.com/AzielCF/az-invert/domains/invert"
	pkgError "github.com/AzielCF/az-invert/pkg/error"
	"github.com/AzielCF/az-invert/pkg/hash"
	"github.com/AzielCF/az-invert/pkg/imgproc"
	"github.com/AzielCF/az-invert/pkg/utils"
	"github.com/AzielCF/az-invert/validations"
	"github.com/sirupsen/logrus"
)

const (
	artifactPrefix = "inverted_"
	artifactExt    = ".png"

	// maxNameCollisions caps the _N suffix search for one original name.
	maxNameCollisions = 10000
)

// ArtifactName is the store name of the processed image for digest.
func ArtifactName(digest string) string {
	return artifactPrefix + digest + artifactExt
}

type InvertOptions struct {
	Policy    imgproc.Policy
	Hasher    hash.Hasher
	Retention time.Duration
	BasePath  string
	Now       func() time.Time
}

type invertService struct {
	store     artifact.Store
	cache     domainCache.ICacheUsecase
	policy    imgproc.Policy
	hasher    hash.Hasher
	retention time.Duration
	basePath  string
	now       func() time.Time
}

func NewInvertService(store artifact.Store, cache domainCache.ICacheUsecase, opts InvertOptions) domainInvert.IInvertUsecase {
	if opts.Policy == "" {
		opts.Policy = imgproc.PolicyThreshold
	}
	if opts.Hasher == nil {
		opts.Hasher, _ = hash.New(hash.AlgorithmMD5)
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &invertService{
		store:     store,
		cache:     cache,
		policy:    opts.Policy,
		hasher:    opts.Hasher,
		retention: opts.Retention,
		basePath:  opts.BasePath,
		now:       opts.Now,
	}
}

func (s *invertService) Process(ctx context.Context, request domainInvert.InvertRequest) (response domainInvert.InvertResponse, err error) {
	if err = validations.ValidateInvertRequest(ctx, request); err != nil {
		return response, err
	}

	// Expired entries go first so a stale artifact is never served.
	s.cache.Sweep(ctx)

	originalName, err := s.persistOriginal(ctx, request)
	if err != nil {
		logrus.WithError(err).Error("[INVERT] failed to store original")
		return response, pkgError.InternalServerError("failed to store uploaded file")
	}

	digest := s.hasher.Sum(request.Data)
	processedName := ArtifactName(digest)

	cacheHit, err := s.ensureArtifact(ctx, processedName, request.Data)
	if err != nil {
		return response, err
	}

	logrus.WithFields(logrus.Fields{
		"original":  originalName,
		"processed": processedName,
		"cache_hit": cacheHit,
	}).Debug("[INVERT] request processed")

	response = domainInvert.InvertResponse{
		OriginalFile:  originalName,
		ProcessedFile: processedName,
		OriginalURL:   utils.UploadURL(s.basePath, originalName),
		ProcessedURL:  utils.UploadURL(s.basePath, processedName),
		Hash:          digest,
		HashAlgorithm: s.hasher.Name(),
		Policy:        string(s.policy),
		CacheHit:      cacheHit,
	}
	return response, nil
}

// persistOriginal stores the upload under its sanitized name, appending
// _1, _2, ... until a free name is found.
func (s *invertService) persistOriginal(ctx context.Context, request domainInvert.InvertRequest) (string, error) {
	base := utils.OriginalName(request.Filename)
	for n := 0; n < maxNameCollisions; n++ {
		name := utils.CollisionName(base, n)
		err := s.store.PutNew(ctx, name, request.Data)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, artifact.ErrExists) {
			return "", err
		}
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", base, maxNameCollisions)
}

// ensureArtifact makes sure a fresh artifact exists for name and reports
// whether an existing one was reused.
func (s *invertService) ensureArtifact(ctx context.Context, name string, data []byte) (bool, error) {
	fresh, err := s.isFresh(ctx, name)
	if err != nil {
		logrus.WithError(err).Error("[INVERT] failed to look up artifact")
		return false, pkgError.InternalServerError("failed to read cache")
	}
	if fresh {
		return true, nil
	}

	if locker, ok := s.store.(artifact.Locker); ok {
		unlock, err := locker.Lock(ctx, name)
		if err != nil {
			// The transform is deterministic, so an unlocked write can only
			// duplicate work.
			logrus.WithError(err).Warnf("[INVERT] could not lock %s, writing unlocked", name)
		} else {
			defer unlock()
			if fresh, err = s.isFresh(ctx, name); err == nil && fresh {
				return true, nil
			}
		}
	}

	out, err := imgproc.Process(data, s.policy)
	if err != nil {
		if errors.Is(err, imgproc.ErrDecode) {
			return false, pkgError.DecodeError("uploaded file is not a valid image")
		}
		logrus.WithError(err).Error("[INVERT] transform failed")
		return false, pkgError.InternalServerError("failed to process image")
	}

	if err := s.store.Put(ctx, name, out); err != nil {
		logrus.WithError(err).Error("[INVERT] failed to store artifact")
		return false, pkgError.InternalServerError("failed to store processed image")
	}
	return false, nil
}

// isFresh reports whether name exists and is still inside the retention
// window. An entry that outlived it but escaped the sweep is recomputed.
func (s *invertService) isFresh(ctx context.Context, name string) (bool, error) {
	entry, err := s.store.Stat(ctx, name)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.now().Sub(entry.ModTime) < s.retention, nil
}

func (s *invertService) Open(ctx context.Context, name string) (domainInvert.StoredFile, error) {
	data, entry, err := s.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) || errors.Is(err, artifact.ErrInvalidName) {
			return domainInvert.StoredFile{}, pkgError.NotFoundError(fmt.Sprintf("file %s not found", name))
		}
		return domainInvert.StoredFile{}, pkgError.InternalServerError("failed to read file")
	}
	return domainInvert.StoredFile{
		Name:        entry.Name,
		ContentType: utils.ContentType(entry.Name),
		Data:        data,
		ModTime:     entry.ModTime,
	}, nil
}
