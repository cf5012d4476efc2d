package papyrus

// Version is the library version. Release builds override it with
// -ldflags "-X github.com/PapyGame/PapyrusWebBackend-sub011.Version=...".
var Version = "0.1.0"
