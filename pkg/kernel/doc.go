// Package kernel builds model kernels from declarative options.
//
// An [Options] value names the model, endpoint, credential and capability
// a kernel targets, plus generation settings and inert usage-window limits.
// It also carries three optional hooks that [Build] invokes in a fixed
// order:
//
//  1. KernelFactory, when set, supplies the [Builder]. Otherwise a
//     [KernelBuilder] is constructed from the registered connector
//     factories (see [RegisterConnector]).
//  2. ConfigureBuilder runs once on that builder so callers can attach
//     connectors and plugins.
//  3. Builder.Build produces the [Kernel].
//  4. ConfigureKernel runs once against the live kernel.
//
// Errors returned by the hooks reach the caller of Build unchanged, and a
// cancelled context ends the build before any later step runs.
//
// Build logs through zerolog.Ctx, so nothing is logged unless the caller
// attaches a logger to the context.
package kernel
