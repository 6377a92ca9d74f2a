package lib

import (
    "time"
)

/* where host characters sit in the bbc keyboard matrix, row << 4 | column.
 * these are the internal key numbers the os uses for negative inkey.
 *
 * http://beebwiki.mdfs.net/Keyboard
 */
var keyMatrix = map[byte]byte{
    'Q': 0x10, '3': 0x11, '4': 0x12, '5': 0x13, '8': 0x15, '-': 0x17, '^': 0x18,
    'W': 0x21, 'E': 0x22, 'T': 0x23, '7': 0x24, 'I': 0x25, '9': 0x26, '0': 0x27,
    '1': 0x30, '2': 0x31, 'D': 0x32, 'R': 0x33, '6': 0x34, 'U': 0x35, 'O': 0x36, 'P': 0x37, '[': 0x38,
    'A': 0x41, 'X': 0x42, 'F': 0x43, 'Y': 0x44, 'J': 0x45, 'K': 0x46, '@': 0x47, ':': 0x48, 0x0d: 0x49,
    'S': 0x51, 'C': 0x52, 'G': 0x53, 'H': 0x54, 'N': 0x55, 'L': 0x56, ';': 0x57, ']': 0x58, 0x7f: 0x59,
    0x09: 0x60, 'Z': 0x61, ' ': 0x62, 'V': 0x63, 'B': 0x64, 'M': 0x65, ',': 0x66, '.': 0x67, '/': 0x68,
    0x1b: 0x70,
}

/* matrix position of a host character, letters in either case */
func KeyPosition(ascii byte) (byte, bool) {
    if ascii >= 'a' && ascii <= 'z' {
        ascii -= 'a' - 'A'
    }
    key, ok := keyMatrix[ascii]
    return key, ok
}

/* press the key for a character and let it go after hold. a later key press
 * is not released by an earlier one. returns false if the character has no
 * key on the matrix
 */
func (via *VIA) TypeKey(ascii byte, hold time.Duration) bool {
    key, ok := KeyPosition(ascii)
    if !ok {
        return false
    }

    via.PressKey(key)
    time.AfterFunc(hold, func(){
        via.pressed.CompareAndSwap(int32(key), noKey)
    })
    return true
}
