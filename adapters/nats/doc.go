/*
Package nats carries hub sessions over NATS.

Subjects, all below a configurable prefix (default "eventhub"):

	<prefix>.connect        request-reply; opens a session and answers {"conn": id, "frames": subj, "deliver": subj}
	<prefix>.session.<id>   inbound frames of one session; call outcomes answer the frame's reply subject
	<prefix>.deliver.<id>   published messages for one session; the event name travels in the Eventhub-Event header

Adapter implements the hub's Sender over any Client; Server drives sessions from a NATS connection.
*/
package nats
