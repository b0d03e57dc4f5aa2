// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package superio decodes the hardware-monitor registers of LPC
// Super-I/O chips (Winbond, Nuvoton, ITE and Fintek).
//
// All register traffic goes through a [Port], an 8-bit view of the x86
// I/O port space. [OpenDevPort] backs it with /dev/port on Linux;
// [MemoryPort] is a simulated port space used by tests and by the
// simulated board of the command-line tool.
//
// [Detect] walks the two standard configuration ports (0x2E and 0x4E)
// and reports each chip it identifies together with the base address
// of its hardware-monitor logical device. [New] binds a decoder to one
// detected chip. The decoder is selected once from the chip model and
// never changes: a decode table per family describes which registers
// hold voltages, temperatures, fan tachometers and PWM duty.
//
// Every logical register read is a fresh port transaction. There is no
// caching, so two reads of the same register may differ when the chip
// updates in between.
package superio
