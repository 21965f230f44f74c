// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package appmessage

import (
	"fmt"
)

// MessageCommand is a number that represents the type of an RPC message.
type MessageCommand uint32

func (cmd MessageCommand) String() string {
	cmdString, ok := RPCMessageCommandToString[cmd]
	if !ok {
		cmdString = "unknown command"
	}
	return fmt.Sprintf("%s [code %d]", cmdString, uint32(cmd))
}

// RPC message commands.
const (
	CmdDumpTxOutSetRequestMessage MessageCommand = iota
	CmdDumpTxOutSetResponseMessage
	CmdLoadTxOutSetRequestMessage
	CmdLoadTxOutSetResponseMessage
	CmdGetChainStatesRequestMessage
	CmdGetChainStatesResponseMessage
	CmdGetBlockchainInfoRequestMessage
	CmdGetBlockchainInfoResponseMessage
	CmdGetBlockHashRequestMessage
	CmdGetBlockHashResponseMessage
	CmdGetBlockRequestMessage
	CmdGetBlockResponseMessage
	CmdSubmitHeaderRequestMessage
	CmdSubmitHeaderResponseMessage
	CmdSubmitBlockRequestMessage
	CmdSubmitBlockResponseMessage
	CmdGetTxOutRequestMessage
	CmdGetTxOutResponseMessage
	CmdSendRawTransactionRequestMessage
	CmdSendRawTransactionResponseMessage
	CmdGetRawMempoolRequestMessage
	CmdGetRawMempoolResponseMessage
	CmdGenerateRequestMessage
	CmdGenerateResponseMessage
	CmdStopRequestMessage
	CmdStopResponseMessage
)

// RPCMessageCommandToString maps all MessageCommands to their string representation
var RPCMessageCommandToString = map[MessageCommand]string{
	CmdDumpTxOutSetRequestMessage:        "DumpTxOutSetRequest",
	CmdDumpTxOutSetResponseMessage:       "DumpTxOutSetResponse",
	CmdLoadTxOutSetRequestMessage:        "LoadTxOutSetRequest",
	CmdLoadTxOutSetResponseMessage:       "LoadTxOutSetResponse",
	CmdGetChainStatesRequestMessage:      "GetChainStatesRequest",
	CmdGetChainStatesResponseMessage:     "GetChainStatesResponse",
	CmdGetBlockchainInfoRequestMessage:   "GetBlockchainInfoRequest",
	CmdGetBlockchainInfoResponseMessage:  "GetBlockchainInfoResponse",
	CmdGetBlockHashRequestMessage:        "GetBlockHashRequest",
	CmdGetBlockHashResponseMessage:       "GetBlockHashResponse",
	CmdGetBlockRequestMessage:            "GetBlockRequest",
	CmdGetBlockResponseMessage:           "GetBlockResponse",
	CmdSubmitHeaderRequestMessage:        "SubmitHeaderRequest",
	CmdSubmitHeaderResponseMessage:       "SubmitHeaderResponse",
	CmdSubmitBlockRequestMessage:         "SubmitBlockRequest",
	CmdSubmitBlockResponseMessage:        "SubmitBlockResponse",
	CmdGetTxOutRequestMessage:            "GetTxOutRequest",
	CmdGetTxOutResponseMessage:           "GetTxOutResponse",
	CmdSendRawTransactionRequestMessage:  "SendRawTransactionRequest",
	CmdSendRawTransactionResponseMessage: "SendRawTransactionResponse",
	CmdGetRawMempoolRequestMessage:       "GetRawMempoolRequest",
	CmdGetRawMempoolResponseMessage:      "GetRawMempoolResponse",
	CmdGenerateRequestMessage:            "GenerateRequest",
	CmdGenerateResponseMessage:           "GenerateResponse",
	CmdStopRequestMessage:                "StopRequest",
	CmdStopResponseMessage:               "StopResponse",
}

// Message is an interface that describes an RPC message. Messages are
// serialized by their cramberry field tags.
type Message interface {
	Command() MessageCommand
}
