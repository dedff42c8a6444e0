package kernel

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Build constructs a kernel from opts:
//
//  1. opts.KernelFactory supplies the builder, or NewDefaultBuilder does.
//  2. opts.ConfigureBuilder runs on it once.
//  3. The builder's Build produces the kernel.
//  4. opts.ConfigureKernel runs once on the kernel.
//
// Any error stops the sequence. Errors from the two hooks are returned as
// they are. When ctx is done before or after a hook, Build returns
// ctx.Err() and runs nothing further. opts is only read, so concurrent
// builds may share it; a nil opts builds a default chat kernel.
func Build(ctx context.Context, opts *Options) (*Kernel, error) {
	if opts == nil {
		opts = &Options{}
	}

	log := zerolog.Ctx(ctx)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		b   Builder
		err error
	)

	if opts.KernelFactory != nil {
		b, err = opts.KernelFactory(ctx, opts)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if b == nil {
			return nil, errors.New("kernel: factory returned a nil builder")
		}
		log.Debug().Msg("kernel: builder from factory")
	} else {
		db, err := NewDefaultBuilder(opts)
		if err != nil {
			return nil, err
		}
		b = db
		log.Debug().Str("provider", db.provider).Stringer("type", db.typ).Msg("kernel: default builder")
	}

	if opts.ConfigureBuilder != nil {
		opts.ConfigureBuilder(b)
	}

	k, err := b.Build()
	if err != nil {
		return nil, err
	}
	if k == nil {
		return nil, errors.New("kernel: builder returned a nil kernel")
	}
	if k.plugins == nil {
		return nil, errors.New("kernel: builder returned a kernel not made by KernelBuilder")
	}

	if opts.ConfigureKernel != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := opts.ConfigureKernel(ctx, k); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	log.Info().Str("kernel", k.ID()).Str("provider", k.Provider()).Stringer("type", k.Type()).
		Str("model", k.ModelID()).Msg("kernel: built")

	return k, nil
}
