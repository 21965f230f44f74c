/*
Copyright (c) 2013-2018 The btcsuite developers
Use of this source code is governed by an ISC
license that can be found in the LICENSE file.

Chainstated is a node that can bootstrap its chain state from a UTXO
snapshot. A loaded snapshot becomes the active chainstate right away while
the blocks below it are validated in the background, after which the
snapshot chainstate replaces the original one.

The default options are sane for most users. However, there are also a
variety of flags that can be used to control it.

Usage:

	chainstated [OPTIONS]

For an up-to-date help message:

	chainstated --help

The long form of all option flags (except -C) can be specified in a
configuration file that is automatically parsed when chainstated starts up.
By default, the configuration file is located at ~/.chainstated/chainstated.conf
on POSIX-style operating systems and %LOCALAPPDATA%\chainstated\chainstated.conf
on Windows. The -C (--configfile) flag can be used to override this location.

Snapshots are created and loaded through the RPC server, for example with
chainstatectl:

	chainstatectl --regtest dumptxoutset utxos.dat
	chainstatectl --regtest loadtxoutset /path/to/utxos.dat
	chainstatectl --regtest getchainstates
*/
package main
