// Package certengine implements the certification-status decision engine
// (component E) and response builder (component F): the pipeline that
// walks vendor -> board -> bios -> related machine -> cpu -> release and
// shapes the matching response payload.
package certengine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/canonical/hardware-api/internal/cpuid"
	"github.com/canonical/hardware-api/internal/model"
	"github.com/canonical/hardware-api/internal/store"
)

// ErrStoreUnavailable is returned, wrapped, whenever a repository call
// fails for a reason other than "not found". The engine never converts
// an I/O error into a classification (§4.5); callers map this to a 500.
var ErrStoreUnavailable = errors.New("certengine: store unavailable")

// NotSeenDetail carries the request fields worth logging when the
// pipeline reaches Not Seen, so the caller can emit the single warn line
// §7 requires without the engine doing its own logging - Classify stays
// a pure function of (request, store).
type NotSeenDetail struct {
	Vendor            string
	BoardManufacturer string
	BoardProduct      string
	BiosVendor        string
	BiosVersion       string
}

// Classify runs the six gates of §4.5 against repo and returns the
// classification and its payload. detail is non-nil only when status is
// Not Seen.
func Classify(ctx context.Context, repo store.Repository, req Request) (resp Response, detail *NotSeenDetail, err error) {
	detail = &NotSeenDetail{
		Vendor:            req.Vendor,
		BoardManufacturer: req.Board.Manufacturer,
		BoardProduct:      req.Board.ProductName,
	}
	if req.Bios != nil {
		detail.BiosVendor = req.Bios.Vendor
		detail.BiosVersion = req.Bios.Version
	}

	// 1. Vendor gate.
	if _, gateErr := repo.GetVendorByName(ctx, req.Vendor); gateErr != nil {
		if store.IsNotFound(gateErr) {
			return NotSeen(), detail, nil
		}
		return Response{}, nil, storeErr(gateErr)
	}

	// 2. Board gate.
	board, gateErr := repo.GetBoard(ctx, req.Board.Manufacturer, req.Board.ProductName)
	if gateErr != nil {
		if store.IsNotFound(gateErr) {
			return NotSeen(), detail, nil
		}
		return Response{}, nil, storeErr(gateErr)
	}

	// 3. BIOS gate (soft): empty biosIDs means "require bios_id IS NULL"
	// in the related-machine traversal, per §4.5 step 3. The first
	// matching row is carried forward as the canonical bios for the
	// response (§9: BIOS-row selection = first match wins).
	var biosIDs []int64
	var matchedBios *model.Bios
	if req.Bios != nil {
		list, listErr := repo.GetBiosList(ctx, req.Bios.Vendor, req.Bios.Version)
		if listErr != nil {
			return Response{}, nil, storeErr(listErr)
		}
		if len(list) == 0 {
			return NotSeen(), detail, nil
		}
		biosIDs = make([]int64, len(list))
		for i, b := range list {
			biosIDs[i] = b.ID
		}
		matchedBios = &list[0]
	}

	// 4. Related-machine gate.
	machine, gateErr := repo.GetMachineWithSameHardwareParams(ctx, req.Architecture, board, biosIDs)
	if gateErr != nil {
		if store.IsNotFound(gateErr) {
			return NotSeen(), detail, nil
		}
		return Response{}, nil, storeErr(gateErr)
	}

	// 5. CPU-compatibility gate. Incompatible is NOT a short-circuit to
	// Not Seen - a matching board+bios is itself "related" hardware.
	cpu, cpuErr := repo.GetCPUForMachine(ctx, machine)
	if cpuErr != nil {
		return Response{}, nil, storeErr(cpuErr)
	}
	compatible, compatErr := cpuCompatible(ctx, repo, cpu, req.Processor)
	if compatErr != nil {
		return Response{}, nil, storeErr(compatErr)
	}
	if !compatible {
		resp, buildErr := buildResponse(ctx, repo, StatusRelatedCertifiedSystem, machine, board, matchedBios)
		return resp, nil, buildErr
	}

	// 6. Release gate.
	reqRelease, relErr := repo.GetReleaseObject(ctx, req.OS.Version, req.OS.Codename)
	if relErr != nil {
		return Response{}, nil, storeErr(relErr)
	}
	pairs, pairsErr := repo.GetReleasesAndKernelsForMachine(ctx, machine)
	if pairsErr != nil {
		return Response{}, nil, storeErr(pairsErr)
	}

	status := StatusCertifiedImageExists
	if reqRelease != nil {
		for _, rk := range pairs {
			if rk.Release.ID == reqRelease.ID {
				status = StatusCertified
				break
			}
		}
	}
	resp, buildErr := buildResponse(ctx, repo, status, machine, board, matchedBios)
	return resp, nil, buildErr
}

// cpuCompatible implements §4.5 step 5's compatibility rule.
func cpuCompatible(ctx context.Context, repo store.Repository, cpu *model.Device, proc ProcessorInfo) (bool, error) {
	if cpu == nil {
		return false, nil
	}
	if len(proc.Identifier) < 3 {
		return cpu.Version == proc.Version, nil
	}

	encoded := cpuid.Encode(proc.Identifier[:3])
	patterns, err := repo.CpuIDPatterns(ctx)
	if err != nil {
		return false, err
	}
	target := cpuid.Lookup(encoded, patterns)
	return cpu.Codename == target, nil
}

func storeErr(err error) error {
	return errors.Wrap(ErrStoreUnavailable, err.Error())
}
